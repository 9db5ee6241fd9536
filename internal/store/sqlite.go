package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/scbrown/cargo-sleek/internal/model"

	_ "modernc.org/sqlite"
)

const schemaVersion = 2

// SQLiteStore implements Store using a local SQLite database. Updates run in
// IMMEDIATE transactions, so concurrent writers queue on the busy timeout
// instead of losing each other's increments.
//
// A store returned by OpenSQLite connects on first use. Load never creates
// the database; Save and Update do.
type SQLiteStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// NewSQLite opens (or creates) a SQLite database at dbPath.
// It auto-creates the parent directory and runs schema migrations to ensure
// the database is up to date.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	s := OpenSQLite(dbPath)
	if _, err := s.conn(true); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLite returns a store for dbPath without touching the filesystem.
func OpenSQLite(dbPath string) *SQLiteStore {
	return &SQLiteStore{path: dbPath}
}

// conn returns the open database, connecting and migrating on first call.
// With create false a missing database file yields a nil *sql.DB and no
// error.
func (s *SQLiteStore) conn(create bool) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	if !create {
		if _, err := os.Stat(s.path); err != nil {
			return nil, nil
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	dsn := "file:" + s.path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for WAL mode simplicity.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.db = db
	return db, nil
}

// migrate runs schema migrations up to the current version.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}

	var ver int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		ver = 0
	} else if err != nil {
		return fmt.Errorf("read version: %w", err)
	}

	if ver < 1 {
		if err := migrateV1(db); err != nil {
			return err
		}
	}
	if ver < 2 {
		if err := migrateV2(db); err != nil {
			return err
		}
	}
	return nil
}

func migrateV1(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS usage (
			name      TEXT PRIMARY KEY,
			count     INTEGER NOT NULL,
			last_used TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS usage_timestamps (
			name TEXT NOT NULL,
			seq  INTEGER NOT NULL,
			ts   TEXT NOT NULL,
			PRIMARY KEY (name, seq)
		)`,
		`INSERT OR REPLACE INTO schema_version (version) VALUES (1)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	return nil
}

func migrateV2(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS usage_durations (
			name        TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			PRIMARY KEY (name, seq)
		)`,
		`UPDATE schema_version SET version = 2`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v2: %w", err)
		}
	}
	return nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load returns all usage records. A missing database or a query failure
// yields an empty mapping.
func (s *SQLiteStore) Load(ctx context.Context) model.Stats {
	db, err := s.conn(false)
	if err != nil || db == nil {
		return model.Stats{}
	}
	stats, err := loadStats(ctx, db)
	if err != nil {
		return model.Stats{}
	}
	return stats
}

// Save replaces every stored record with stats in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, stats model.Stats) error {
	db, err := s.conn(true)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	if err := saveStats(ctx, tx, stats); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Update performs load, fn, and save within a single IMMEDIATE transaction.
func (s *SQLiteStore) Update(ctx context.Context, fn func(model.Stats) error) error {
	db, err := s.conn(true)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	stats, err := loadStats(ctx, tx)
	if err != nil {
		stats = model.Stats{}
	}
	if err := fn(stats); err != nil {
		return err
	}
	if err := saveStats(ctx, tx, stats); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// Close closes the underlying database, if it was ever opened.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func loadStats(ctx context.Context, q querier) (model.Stats, error) {
	stats := model.Stats{}

	rows, err := q.QueryContext(ctx, `SELECT name, count, last_used FROM usage`)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	for rows.Next() {
		r := &model.UsageRecord{}
		var lastUsed sql.NullString
		if err := rows.Scan(&r.Name, &r.Count, &lastUsed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		if lastUsed.Valid {
			if t, err := time.Parse(time.RFC3339Nano, lastUsed.String); err == nil {
				r.LastUsed = model.NewTimestamp(t)
			}
		}
		stats[r.Name] = r
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `SELECT name, ts FROM usage_timestamps ORDER BY name, seq`)
	if err != nil {
		return nil, fmt.Errorf("query timestamps: %w", err)
	}
	for rows.Next() {
		var name, ts string
		if err := rows.Scan(&name, &ts); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan timestamp: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			continue
		}
		if r, ok := stats[name]; ok {
			r.Timestamps = append(r.Timestamps, t)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `SELECT name, duration_ms FROM usage_durations ORDER BY name, seq`)
	if err != nil {
		return nil, fmt.Errorf("query durations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var ms int64
		if err := rows.Scan(&name, &ms); err != nil {
			return nil, fmt.Errorf("scan duration: %w", err)
		}
		if r, ok := stats[name]; ok {
			r.DurationsMS = append(r.DurationsMS, ms)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.Normalize()
	return stats, nil
}

func saveStats(ctx context.Context, q querier, stats model.Stats) error {
	for _, stmt := range []string{
		`DELETE FROM usage`,
		`DELETE FROM usage_timestamps`,
		`DELETE FROM usage_durations`,
	} {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear usage: %w", err)
		}
	}

	for name, r := range stats {
		if r == nil {
			continue
		}
		var lastUsed any
		if r.LastUsed != nil && !r.LastUsed.IsZero() {
			lastUsed = r.LastUsed.UTC().Format(time.RFC3339Nano)
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO usage (name, count, last_used) VALUES (?, ?, ?)`,
			name, r.Count, lastUsed,
		); err != nil {
			return fmt.Errorf("insert usage %q: %w", name, err)
		}
		for i, ts := range r.Timestamps {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO usage_timestamps (name, seq, ts) VALUES (?, ?, ?)`,
				name, i, ts.UTC().Format(time.RFC3339Nano),
			); err != nil {
				return fmt.Errorf("insert timestamp for %q: %w", name, err)
			}
		}
		for i, ms := range r.DurationsMS {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO usage_durations (name, seq, duration_ms) VALUES (?, ?, ?)`,
				name, i, ms,
			); err != nil {
				return fmt.Errorf("insert duration for %q: %w", name, err)
			}
		}
	}
	return nil
}
