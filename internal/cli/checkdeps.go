package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/scbrown/cargo-sleek/internal/analyze"
	"github.com/scbrown/cargo-sleek/internal/model"
	"github.com/spf13/cobra"
)

var (
	manifestPath string
	lockPath     string
	analyzerName string
)

var checkDepsCmd = &cobra.Command{
	Use:   "check-deps",
	Short: "List dependencies declared in Cargo.toml but absent from Cargo.lock",
	Long: `Check-deps compares the [dependencies] section of Cargo.toml with
Cargo.lock and lists the names the lock file does not mention.

The default "line" analyzer is a text heuristic: a dependency counts as present
when its name appears anywhere in Cargo.lock, so a name contained in another
package's name (log inside log-derive) is never reported. It does not look at
your source code, so a dependency that is locked but never imported is not
reported either. The "toml" analyzer parses both files and compares package
names exactly, honoring renamed dependencies.

When a missing name is close to a locked package name, the closest one is
shown as a hint.`,
	Example: `  cargo-sleek check-deps
  cargo-sleek check-deps --analyzer toml
  cargo-sleek check-deps --manifest crates/core/Cargo.toml --lock Cargo.lock`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := analyzerName
		if !cmd.Flags().Changed("analyzer") {
			name = cfg.ResolvedAnalyzer()
		}
		a, err := analyze.ByName(name)
		if err != nil {
			return err
		}

		manifest, err := os.ReadFile(manifestPath)
		if err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}
		lock, err := os.ReadFile(lockPath)
		if err != nil {
			return fmt.Errorf("read lock file: %w", err)
		}

		unused, err := a.Unused(manifest, lock)
		if err != nil {
			return err
		}
		if locked, err := analyze.LockedPackages(lock); err == nil {
			unused = analyze.Hints(unused, locked)
		} else {
			logger.Debug("no hints: lock file is not valid TOML", "err", err)
		}
		logger.Debug("dependency check", "analyzer", a.Name(), "unused", len(unused))

		if jsonOutput {
			if unused == nil {
				unused = []model.Dependency{}
			}
			return writeJSON(os.Stdout, unused)
		}
		writeDepsText(os.Stdout, manifestPath, unused)
		return nil
	},
}

func init() {
	checkDepsCmd.Flags().StringVar(&manifestPath, "manifest", "Cargo.toml", "path to the manifest")
	checkDepsCmd.Flags().StringVar(&lockPath, "lock", "Cargo.lock", "path to the lock file")
	checkDepsCmd.Flags().StringVar(&analyzerName, "analyzer", "line", "analyzer to use: line or toml")
	rootCmd.AddCommand(checkDepsCmd)
}

func writeDepsText(w io.Writer, manifest string, unused []model.Dependency) {
	printHeading(w, "Analyzing dependencies")
	if len(unused) == 0 {
		fmt.Fprintln(w, good("No unused dependencies found."))
		return
	}
	fmt.Fprintf(w, "Unused dependencies (%d):\n", len(unused))
	for _, d := range unused {
		line := fmt.Sprintf("  %s:%d  %s", manifest, d.Line, badText(d.Name))
		if d.Hint != "" {
			line += fmt.Sprintf("  (did you mean %s?)", d.Hint)
		}
		fmt.Fprintln(w, line)
	}
}
