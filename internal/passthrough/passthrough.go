// Package passthrough forwards a subcommand to the build tool and records
// its use.
package passthrough

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/scbrown/cargo-sleek/internal/process"
	"github.com/scbrown/cargo-sleek/internal/usage"
)

// ExitSpawnFailure is returned when the build tool cannot be started, matching
// the shell's "command not found" status.
const ExitSpawnFailure = 127

// Executor runs forwarded invocations of Tool. A nil Tracker runs commands
// without recording them.
type Executor struct {
	Tracker *usage.Tracker
	Runner  process.Runner
	Tool    string
	Keys    usage.KeyPolicy
	Logger  *log.Logger

	// Stdin, Stdout and Stderr are inherited by the child. Nil means the
	// process's own streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	now func() time.Time
}

// Execute counts the invocation of name, runs Tool with name and argv
// unchanged, and returns the child's exit code.
//
// The invocation is counted before the child starts, so commands that fail,
// including ones whose tool cannot be spawned, still appear in the stats.
// A non-nil error is returned only when the child could not be spawned; the
// code is then ExitSpawnFailure.
func (e *Executor) Execute(ctx context.Context, name string, argv []string) (int, error) {
	logger := e.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	now := e.now
	if now == nil {
		now = time.Now
	}

	key := e.Keys.Key(name, argv)
	tracked := false
	if e.Tracker != nil {
		if err := e.Tracker.Track(ctx, key); err != nil {
			logger.Warn("could not record usage", "command", key, "err", err)
		} else {
			tracked = true
		}
	}

	spec := process.Spec{
		Name:   e.Tool,
		Args:   append([]string{name}, argv...),
		Stdin:  orReader(e.Stdin, os.Stdin),
		Stdout: orWriter(e.Stdout, os.Stdout),
		Stderr: orWriter(e.Stderr, os.Stderr),
	}
	logger.Debug("forwarding", "cmd", spec.String())

	start := now()
	code, err := e.Runner.Run(ctx, spec)
	if err != nil {
		return ExitSpawnFailure, err
	}
	elapsed := now().Sub(start)
	logger.Debug("child exited", "code", code, "elapsed", elapsed)

	if tracked {
		if err := e.Tracker.RecordDuration(ctx, key, elapsed); err != nil {
			logger.Warn("could not record duration", "command", key, "err", err)
		}
	}
	return code, nil
}

func orReader(r, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orWriter(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
