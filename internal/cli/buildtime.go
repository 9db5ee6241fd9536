package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/scbrown/cargo-sleek/internal/model"
	"github.com/scbrown/cargo-sleek/internal/profile"
	"github.com/spf13/cobra"
)

var (
	buildVerbose bool
	buildRelease bool
)

var buildTimeCmd = &cobra.Command{
	Use:   "build-time",
	Short: "Time a cargo build and report the slowest unit",
	Long: `Build-time runs "cargo build --timings" and reports how long it took.

For a successful build it also reports the size of the build output directory
and saves cargo's output to target/cargo-sleek-timings.txt (configurable via
cargo-sleek settings report_path). A failed build is still timed; its exit
code is shown but build-time itself succeeds.`,
	Example: `  cargo-sleek build-time
  cargo-sleek build-time --release --verbose`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &profile.Profiler{
			Runner:     runner,
			Tool:       cfg.ResolvedTool(),
			TargetDir:  cfg.ResolvedTargetDir(),
			ReportPath: cfg.ResolvedReportPath(),
			Stderr:     os.Stderr,
			Logger:     logger,
		}
		if !jsonOutput {
			printHeading(os.Stdout, "Profiling build")
		}
		bt, err := p.Analyze(context.Background(), profile.Options{
			Verbose: buildVerbose,
			Release: buildRelease,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(os.Stdout, bt)
		}
		writeBuildTiming(os.Stdout, bt)
		return nil
	},
}

func init() {
	buildTimeCmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "stream cargo's output while building")
	buildTimeCmd.Flags().BoolVar(&buildRelease, "release", false, "profile a release build")
	rootCmd.AddCommand(buildTimeCmd)
}

func writeBuildTiming(w io.Writer, bt *model.BuildTiming) {
	if !bt.Success {
		fmt.Fprintf(w, "%s build failed with exit code %d after %s\n",
			badText("error:"), bt.ExitCode, bt.Duration.Round(10*time.Millisecond))
		return
	}
	fmt.Fprintf(w, "Build finished in %s\n", good(bt.Duration.Round(10*time.Millisecond).String()))
	fmt.Fprintf(w, "Output size:      %s\n", humanize.Bytes(uint64(bt.ArtifactSize)))
	if bt.SlowestUnit != "" {
		fmt.Fprintf(w, "Slowest unit:     %s\n", warnText(bt.SlowestUnit))
	}
	if bt.ReportPath != "" {
		fmt.Fprintf(w, "Report saved to:  %s\n", bt.ReportPath)
	}
}
