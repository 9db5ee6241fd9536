// Package profile times a build of the underlying tool and extracts the
// slowest compilation unit from its timing output.
package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/scbrown/cargo-sleek/internal/model"
	"github.com/scbrown/cargo-sleek/internal/process"
)

// TimingsFlag asks cargo to emit build timing information.
const TimingsFlag = "--timings"

// SlowestMarker identifies the output line naming the slowest unit.
const SlowestMarker = "slowest"

// ProfilingError reports that the build tool could not be started.
type ProfilingError struct {
	Err error
}

func (e *ProfilingError) Error() string {
	return fmt.Sprintf("profiling build: %v", e.Err)
}

func (e *ProfilingError) Unwrap() error { return e.Err }

// Options controls one profiling run.
type Options struct {
	// Verbose streams the tool's output to Profiler.Stderr (os.Stderr when
	// unset) while capturing it.
	Verbose bool
	// Release profiles a release build.
	Release bool
}

// Profiler runs timed builds.
type Profiler struct {
	Runner     process.Runner
	Tool       string
	TargetDir  string
	ReportPath string
	Stderr     io.Writer
	Logger     *log.Logger

	now func() time.Time
}

// Analyze builds once with timings enabled and returns what it measured. The
// elapsed time is measured whether or not the build succeeds; a failed build
// is reported through BuildTiming.Success, not as an error.
func (p *Profiler) Analyze(ctx context.Context, opts Options) (*model.BuildTiming, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	now := p.now
	if now == nil {
		now = time.Now
	}

	args := []string{"build", TimingsFlag}
	if opts.Release {
		args = append(args, "--release")
	}

	var captured bytes.Buffer
	var out io.Writer = &captured
	if opts.Verbose {
		stderr := p.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		out = io.MultiWriter(&captured, stderr)
	}

	spec := process.Spec{Name: p.Tool, Args: args, Stdout: out, Stderr: out}
	timing := &model.BuildTiming{RunID: uuid.NewString()}
	logger.Debug("starting profiled build", "run", timing.RunID, "cmd", spec.String())

	start := now()
	code, err := p.Runner.Run(ctx, spec)
	timing.Duration = now().Sub(start)
	if err != nil {
		return nil, &ProfilingError{Err: err}
	}

	timing.ExitCode = code
	timing.Success = code == 0
	timing.ReportText = captured.String()
	timing.SlowestUnit = SlowestUnit(timing.ReportText)

	if !timing.Success {
		logger.Debug("profiled build failed", "run", timing.RunID, "exit", code, "elapsed", timing.Duration)
		return timing, nil
	}

	timing.ArtifactSize = DirSize(filepath.Join(p.TargetDir, buildProfile(opts)))
	if err := writeReport(p.ReportPath, timing); err != nil {
		logger.Warn("could not save build report", "path", p.ReportPath, "err", err)
	} else {
		timing.ReportPath = p.ReportPath
	}
	return timing, nil
}

func buildProfile(opts Options) string {
	if opts.Release {
		return "release"
	}
	return "debug"
}

// SlowestUnit returns the last line of output containing SlowestMarker,
// trimmed, or "" if there is none.
func SlowestUnit(output string) string {
	var last string
	for line := range strings.Lines(output) {
		if strings.Contains(line, SlowestMarker) {
			last = strings.TrimSpace(line)
		}
	}
	return last
}

// DirSize returns the total size of the regular files under dir. A missing
// or unreadable tree counts as zero.
func DirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

func writeReport(path string, t *model.BuildTiming) error {
	if path == "" {
		return fmt.Errorf("no report path configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(t.ReportText), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
