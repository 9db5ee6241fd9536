package cli

import (
	"context"
	"os"
	"strings"

	"github.com/scbrown/cargo-sleek/internal/config"
	"github.com/scbrown/cargo-sleek/internal/passthrough"
	"github.com/scbrown/cargo-sleek/internal/store"
	"github.com/scbrown/cargo-sleek/internal/usage"
)

// reserved names the subcommands cargo-sleek handles itself. Every other
// first argument is forwarded to the build tool.
var reserved = map[string]bool{
	"stats":        true,
	"reset":        true,
	"check-deps":   true,
	"build-time":   true,
	"log":          true,
	"time-tracker": true,
	"settings":     true,
}

// cargoSubcommand is the first argument cargo passes when it runs
// cargo-sleek as "cargo sleek".
const cargoSubcommand = "sleek"

// Run dispatches args and returns the process exit code.
//
// Built-in subcommands, flags such as --help and --version, and an empty
// argument list are handled by the command tree: 0 on success, 1 on error.
// Anything else runs the build tool with args unchanged and returns its exit
// code.
func Run(args []string) int {
	if len(args) > 0 && args[0] == cargoSubcommand {
		args = args[1:]
	}
	if isBuiltin(args) {
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			printError(os.Stderr, err)
			return 1
		}
		return 0
	}
	return forward(args[0], args[1:])
}

// isBuiltin reports whether args are handled by the command tree.
func isBuiltin(args []string) bool {
	if len(args) == 0 {
		return true
	}
	return strings.HasPrefix(args[0], "-") || reserved[args[0]]
}

// forward runs the build tool through a passthrough.Executor. Configuration
// or store problems never stop the command from running; they only cost the
// usage record.
func forward(name string, argv []string) int {
	c, err := config.LoadFrom(configPath)
	if err != nil {
		logger.Warn("using default configuration", "err", err)
		c = &config.Config{}
	}
	cfg = c
	logger = newLogger(os.Stderr, logLevel(cfg, false))

	keys, err := keyPolicy()
	if err != nil {
		logger.Warn("falling back to per-command keys", "err", err)
		keys = usage.KeyCommand
	}

	exec := &passthrough.Executor{
		Runner: runner,
		Tool:   cfg.ResolvedTool(),
		Keys:   keys,
		Logger: logger,
	}

	var s store.Store
	if s, err = openStore(); err != nil {
		logger.Warn("usage will not be recorded", "err", err)
	} else {
		defer s.Close()
		exec.Tracker = usage.NewTracker(s)
	}

	code, err := exec.Execute(context.Background(), name, argv)
	if err != nil {
		printError(os.Stderr, err)
	}
	return code
}
