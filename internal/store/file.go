package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/natefinch/atomic"
	"github.com/scbrown/cargo-sleek/internal/model"
)

// FileStore keeps statistics in a single JSON object on disk. Saves replace
// the file by atomic rename; updates are serialized across processes with an
// advisory lock on a sibling ".lock" file.
type FileStore struct {
	path     string
	lockPath string
	logger   *log.Logger
}

// NewFile returns a FileStore backed by path. Nothing is created until the
// first save. A nil logger discards diagnostics.
func NewFile(path string, logger *log.Logger) *FileStore {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &FileStore{
		path:     path,
		lockPath: path + ".lock",
		logger:   logger,
	}
}

// Path returns the statistics file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the statistics file. Missing and corrupt files both yield an
// empty mapping.
func (s *FileStore) Load(_ context.Context) model.Stats {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return model.Stats{}
	}
	var stats model.Stats
	if err := json.Unmarshal(data, &stats); err != nil || stats == nil {
		return model.Stats{}
	}
	stats.Normalize()
	return stats
}

// Save serializes stats and atomically replaces the statistics file,
// creating its directory if needed.
func (s *FileStore) Save(_ context.Context, stats model.Stats) error {
	if stats == nil {
		stats = model.Stats{}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create stats dir: %w", err)
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

// Update runs a read-modify-write cycle while holding the lock file.
// If the lock cannot be acquired the cycle proceeds unlocked.
func (s *FileStore) Update(ctx context.Context, fn func(model.Stats) error) error {
	unlock, err := s.lock()
	if err != nil {
		s.logger.Debug("proceeding without stats lock", "path", s.lockPath, "err", err)
	} else {
		defer unlock()
	}

	stats := s.Load(ctx)
	if err := fn(stats); err != nil {
		return err
	}
	return s.Save(ctx, stats)
}

// lock takes an exclusive advisory lock and returns the function that
// releases it.
func (s *FileStore) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := flockExclusive(f); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		_ = funlock(f)
		f.Close()
	}, nil
}

// Close is a no-op; FileStore holds no open handles between calls.
func (s *FileStore) Close() error {
	return nil
}
