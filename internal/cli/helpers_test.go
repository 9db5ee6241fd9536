package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/scbrown/cargo-sleek/internal/config"
	"github.com/scbrown/cargo-sleek/internal/model"
	"github.com/scbrown/cargo-sleek/internal/process"
	"github.com/scbrown/cargo-sleek/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// captureStdout runs fn while capturing stdout, returning the output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// captureStdoutAndStderr runs fn while capturing both stdout and stderr.
func captureStdoutAndStderr(t *testing.T, fn func()) (stdout, stderr string) {
	t.Helper()

	oldOut := os.Stdout
	oldErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	fn()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldOut
	os.Stderr = oldErr

	var bufOut, bufErr bytes.Buffer
	io.Copy(&bufOut, rOut)
	io.Copy(&bufErr, rErr)
	return bufOut.String(), bufErr.String()
}

// resetFlags restores every flag to its default, points HOME and the config
// file at a fresh temp dir, and returns that dir.
func resetFlags(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	origConfig, origRunner, origNoColor := configPath, runner, color.NoColor
	t.Cleanup(func() {
		configPath = origConfig
		runner = origRunner
		color.NoColor = origNoColor
		cfg = &config.Config{}
	})

	color.NoColor = true

	configPath = filepath.Join(dir, "config.toml")
	cfg = &config.Config{}
	runner = process.RunnerFunc(func(context.Context, process.Spec) (int, error) {
		t.Fatal("unexpected call to the build tool")
		return 0, nil
	})
	clearFlags(rootCmd)
	return dir
}

func clearFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		clearFlags(c)
	}
}

// writeConfig saves c as the config file used by the command tree.
func writeConfig(t *testing.T, c *config.Config) {
	t.Helper()
	if err := c.SaveTo(configPath); err != nil {
		t.Fatalf("save config: %v", err)
	}
}

// seedStats writes stats to a JSON stats file at path.
func seedStats(t *testing.T, path string, stats model.Stats) {
	t.Helper()
	if err := store.NewFile(path, nil).Save(context.Background(), stats); err != nil {
		t.Fatalf("seed stats: %v", err)
	}
}

// loadStats reads the JSON stats file at path.
func loadStats(t *testing.T, path string) model.Stats {
	t.Helper()
	return store.NewFile(path, nil).Load(context.Background())
}

// scriptedTool returns a Runner that writes output to the child's stdout,
// exits with code, and appends each Spec it receives to calls.
func scriptedTool(output string, code int, calls *[]process.Spec) process.Runner {
	return process.RunnerFunc(func(_ context.Context, s process.Spec) (int, error) {
		if calls != nil {
			*calls = append(*calls, s)
		}
		if output != "" && s.Stdout != nil {
			io.WriteString(s.Stdout, output)
		}
		return code, nil
	})
}

// execute runs args through the router and returns the exit code and stdout.
func execute(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var code int
	out := captureStdout(t, func() {
		code = Run(args)
	})
	return code, out
}
