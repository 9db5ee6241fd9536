// Package store defines the persistence interface for usage statistics and
// its file and SQLite implementations.
package store

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/scbrown/cargo-sleek/internal/model"
)

// Store persists the full command-name to usage-record mapping.
//
// Callers must not cache the result of Load across operations; every update
// goes through Update (or Load followed by Save) against current state.
type Store interface {
	// Load returns the persisted statistics. A missing, unreadable, or
	// malformed store yields an empty mapping, never an error.
	Load(ctx context.Context) model.Stats

	// Save replaces the persisted statistics with stats.
	Save(ctx context.Context, stats model.Stats) error

	// Update loads the statistics, applies fn, and saves the result inside
	// the store's critical section. If fn returns an error nothing is saved.
	Update(ctx context.Context, fn func(model.Stats) error) error

	// Path returns the location of the backing file.
	Path() string

	// Close releases any resources held by the store.
	Close() error
}

// Mode names accepted by Open.
const (
	ModeFile   = "file"
	ModeSQLite = "sqlite"
)

// Open returns the Store for mode at path. An empty mode selects the JSON
// file store. Neither backend creates anything on disk until the first write.
func Open(mode, path string, logger *log.Logger) (Store, error) {
	switch mode {
	case "", ModeFile:
		return NewFile(path, logger), nil
	case ModeSQLite:
		return OpenSQLite(path), nil
	default:
		return nil, fmt.Errorf("unknown store mode %q (want %q or %q)", mode, ModeFile, ModeSQLite)
	}
}
