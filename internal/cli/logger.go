package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/scbrown/cargo-sleek/internal/config"
)

// newLogger creates a logger with timestamp formatting that writes to w and
// filters messages below level. Timestamps look like "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          "cargo-sleek",
	})
}

// logLevel returns the level configured by log_level, or debug when debug is
// set. An unparseable level falls back to warn.
func logLevel(c *config.Config, debug bool) log.Level {
	if debug {
		return log.DebugLevel
	}
	lvl, err := log.ParseLevel(c.ResolvedLogLevel())
	if err != nil {
		return log.WarnLevel
	}
	return lvl
}
