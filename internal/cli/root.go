// Package cli defines the cobra command tree for cargo-sleek's built-in
// subcommands and the router that forwards everything else to cargo.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/scbrown/cargo-sleek/internal/config"
	"github.com/scbrown/cargo-sleek/internal/process"
	"github.com/scbrown/cargo-sleek/internal/store"
	"github.com/scbrown/cargo-sleek/internal/usage"
	"github.com/spf13/cobra"
)

var (
	statsFile  string
	jsonOutput bool
	debugLog   bool

	// cfg is the configuration loaded for the current invocation.
	cfg = &config.Config{}
	// logger writes diagnostics to stderr.
	logger = log.New(os.Stderr)
)

// configPath is the path to the config file, settable for testing.
var configPath = config.Path()

// runner starts the build tool, replaceable in tests.
var runner process.Runner = process.Exec{}

// rootCmd is the top-level cargo-sleek command.
var rootCmd = &cobra.Command{
	Use:   "cargo-sleek",
	Short: "Cargo wrapper that tracks command usage and profiles builds",
	Long: `cargo-sleek runs cargo for you and keeps count of what you run.

Any subcommand it does not define itself is forwarded to cargo unchanged,
and cargo's exit code is passed back. Each forwarded command is recorded in
~/.cargo-sleek/stats.json (configurable via --stats-file or
cargo-sleek settings stats_path) together with when it ran and how long it
took.

Installed on PATH, it also works as a cargo subcommand: "cargo sleek stats".`,
	Example: `  # Build through the wrapper
  cargo-sleek build --release

  # See what you run most
  cargo-sleek stats --top 10

  # Look for dependencies missing from Cargo.lock
  cargo-sleek check-deps

  # Time a full build
  cargo-sleek build-time --release`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadFrom(configPath)
		if err != nil {
			return err
		}
		cfg = c
		if cfg.DefaultFormat == "json" && !cmd.Flags().Changed("json") {
			jsonOutput = true
		}
		logger = newLogger(os.Stderr, logLevel(cfg, debugLog))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&statsFile, "stats-file", "", "path to the statistics file (default ~/.cargo-sleek/stats.json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "log debug diagnostics to stderr")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// statsPath returns --stats-file when given, otherwise the configured path.
func statsPath() string {
	if statsFile != "" {
		return statsFile
	}
	return cfg.ResolvedStatsPath()
}

// openStore returns the store.Store selected by store_mode.
func openStore() (store.Store, error) {
	s, err := store.Open(cfg.ResolvedStoreMode(), statsPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("open stats store: %w", err)
	}
	return s, nil
}

// keyPolicy returns the configured key_mode.
func keyPolicy() (usage.KeyPolicy, error) {
	return usage.ParseKeyPolicy(cfg.ResolvedKeyMode())
}
