// Package process is the narrow capability cargo-sleek uses to run the
// underlying build tool: spawn a program, wait for it, report its exit code.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Spec describes one child process.
type Spec struct {
	Name   string   // executable name or path
	Args   []string // arguments, not including Name
	Dir    string   // working directory; empty means the current one
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for log messages.
func (s Spec) String() string {
	return strings.TrimSpace(s.Name + " " + strings.Join(s.Args, " "))
}

// Runner starts a process described by a Spec and blocks until it exits.
//
// A process that starts and exits, successfully or not, yields its exit code
// and a nil error. An error means no process ran; it is a *SpawnError.
type Runner interface {
	Run(ctx context.Context, spec Spec) (int, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, spec Spec) (int, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, spec Spec) (int, error) {
	return f(ctx, spec)
}

// SpawnError reports that a child process could not be started.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to run %s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// UnknownStatus is the exit code reported for a child that terminated
// without one, such as one killed by a signal.
const UnknownStatus = 1

// Exec runs processes with os/exec.
type Exec struct{}

// Run implements Runner.
func (Exec) Run(ctx context.Context, spec Spec) (int, error) {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	if err := cmd.Start(); err != nil {
		return 0, &SpawnError{Name: spec.Name, Err: err}
	}
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return UnknownStatus, nil
	}
	// Wait failed for a reason other than the exit status (for example an
	// I/O copy error); the process did run.
	if code := cmd.ProcessState.ExitCode(); code >= 0 {
		return code, nil
	}
	return UnknownStatus, nil
}
