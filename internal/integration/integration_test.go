//go:build integration

// Package integration provides end-to-end tests that exercise the compiled
// cargo-sleek binary against a fake cargo. Tests in this package are excluded
// from normal `go test ./...` runs and require the build tag:
// go test -tags integration ./internal/integration/
//
// TestMain builds the binary once into a temporary directory. Each test
// creates an isolated env with its own HOME, config, and fake cargo script so
// tests can run in parallel.
package integration

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// sleekBin holds the path to the compiled binary, set once in TestMain.
var sleekBin string

// TestMain builds the binary and runs all integration tests.
func TestMain(m *testing.M) {
	if runtime.GOOS == "windows" {
		// The fake cargo is a shell script.
		os.Exit(0)
	}
	tmp, err := os.MkdirTemp("", "cargo-sleek-integration-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration: create temp dir: %v\n", err)
		os.Exit(1)
	}

	bin := filepath.Join(tmp, "cargo-sleek")
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/cargo-sleek")
	cmd.Dir = modRoot()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "integration: build binary: %v\n", err)
		os.RemoveAll(tmp)
		os.Exit(1)
	}

	sleekBin = bin
	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

// modRoot returns the module root directory by walking up from the working
// directory until go.mod is found.
func modRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("integration: getwd: %v", err))
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("integration: could not find go.mod in any parent directory")
		}
		dir = parent
	}
}

// fakeCargo is the build tool used by every env. It logs its arguments one
// per line to $FAKE_CARGO_LOG, prints $FAKE_CARGO_OUTPUT, and exits with
// $FAKE_CARGO_EXIT.
const fakeCargo = `#!/bin/sh
if [ -n "$FAKE_CARGO_LOG" ]; then
  for a in "$@"; do printf '%s\n' "$a"; done >> "$FAKE_CARGO_LOG"
  echo "--" >> "$FAKE_CARGO_LOG"
fi
if [ -n "$FAKE_CARGO_OUTPUT" ]; then printf '%s\n' "$FAKE_CARGO_OUTPUT"; fi
exit "${FAKE_CARGO_EXIT:-0}"
`

// env is an isolated environment for running cargo-sleek.
type env struct {
	t         *testing.T
	home      string // isolated HOME directory
	dir       string // working directory for commands
	cfgPath   string // ~/.cargo-sleek/config.toml
	statsPath string // ~/.cargo-sleek/stats.json
	cargo     string // fake cargo script
	vars      []string
}

// newEnv creates an isolated env whose config points tool at the fake cargo.
func newEnv(t *testing.T) *env {
	t.Helper()
	home := t.TempDir()
	work := t.TempDir()

	dataDir := filepath.Join(home, ".cargo-sleek")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("create data dir: %v", err)
	}
	cargo := filepath.Join(home, "fake-cargo")
	if err := os.WriteFile(cargo, []byte(fakeCargo), 0o755); err != nil {
		t.Fatalf("write fake cargo: %v", err)
	}

	e := &env{
		t:         t,
		home:      home,
		dir:       work,
		cfgPath:   filepath.Join(dataDir, "config.toml"),
		statsPath: filepath.Join(dataDir, "stats.json"),
		cargo:     cargo,
	}
	e.writeConfig("")
	return e
}

// writeConfig writes config.toml with the fake cargo as tool plus extra.
func (e *env) writeConfig(extra string) {
	e.t.Helper()
	cfg := fmt.Sprintf("tool = %q\n%s", e.cargo, extra)
	if err := os.WriteFile(e.cfgPath, []byte(cfg), 0o644); err != nil {
		e.t.Fatalf("write config: %v", err)
	}
}

// setenv adds an environment variable to every later run.
func (e *env) setenv(key, value string) {
	e.vars = append(e.vars, key+"="+value)
}

// run executes `cargo-sleek <args>` and returns stdout, stderr and the exit
// code.
func (e *env) run(args ...string) (stdout, stderr string, code int) {
	e.t.Helper()
	cmd := exec.Command(sleekBin, args...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), "HOME="+e.home, "NO_COLOR=1")
	cmd.Env = append(cmd.Env, e.vars...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
	default:
		e.t.Fatalf("run %v: %v", args, err)
	}
	return outBuf.String(), errBuf.String(), code
}

// mustRun is like run but fails the test on a non-zero exit.
func (e *env) mustRun(args ...string) (stdout, stderr string) {
	e.t.Helper()
	stdout, stderr, code := e.run(args...)
	if code != 0 {
		e.t.Fatalf("cargo-sleek %v exited %d\nstdout: %s\nstderr: %s", args, code, stdout, stderr)
	}
	return stdout, stderr
}

// writeFile writes content to name inside the working directory.
func (e *env) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatalf("write %s: %v", name, err)
	}
	return path
}
