package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scbrown/cargo-sleek/internal/model"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFile(filepath.Join(t.TempDir(), "stats.json"), nil)
}

func TestFileLoadMissing(t *testing.T) {
	s := newTestFileStore(t)
	stats := s.Load(context.Background())
	if stats == nil {
		t.Fatal("Load returned nil map")
	}
	if len(stats) != 0 {
		t.Errorf("expected empty stats, got %d records", len(stats))
	}
	if _, err := os.Stat(s.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load must not create the file, stat err = %v", err)
	}
}

func TestFileLoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "THIS IS NOT JSON"},
		{"truncated", `{"build": {"count": 3`},
		{"array", `[1, 2, 3]`},
		{"null", `null`},
		{"wrong field type", `{"build": {"count": "many"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestFileStore(t)
			if err := os.WriteFile(s.Path(), []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			stats := s.Load(context.Background())
			if len(stats) != 0 {
				t.Errorf("expected empty stats for %s, got %v", tt.name, stats)
			}
		})
	}
}

func TestFileLoadAcceptsEpochLastUsed(t *testing.T) {
	s := newTestFileStore(t)
	content := `{"build": {"count": 2, "last_used": 1770465600}, "test": {"count": 0}}`
	if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	stats := s.Load(context.Background())
	if len(stats) != 1 {
		t.Fatalf("expected 1 record (zero-count dropped), got %d", len(stats))
	}
	r := stats["build"]
	if r.Name != "build" || r.Count != 2 {
		t.Errorf("record = %+v", r)
	}
	want := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	if !r.LastUsedAt().Equal(want) {
		t.Errorf("LastUsedAt = %v, want %v", r.LastUsedAt(), want)
	}
}

func TestFileLoadAcceptsZonelessLastUsed(t *testing.T) {
	s := newTestFileStore(t)
	content := `{"build":{"count":3,"last_used":"2024-01-01T10:00:00"},"test":{"count":9}}`
	if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	stats := s.Load(context.Background())
	if len(stats) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(stats), stats)
	}
	if r := stats["test"]; r == nil || r.Count != 9 {
		t.Errorf("test = %+v, want count 9", r)
	}
	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	if got := stats["build"].LastUsedAt(); !got.Equal(want) {
		t.Errorf("LastUsedAt = %v, want %v", got, want)
	}
}

func TestFileLoadAcceptsEpochTimestampHistory(t *testing.T) {
	s := newTestFileStore(t)
	content := `{"build":{"count":2,"timestamps":[1770465600,1770465660]}}`
	if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	r := s.Load(context.Background())["build"]
	if r == nil || r.Count != 2 || len(r.Timestamps) != 2 {
		t.Fatalf("record = %+v", r)
	}
	want := time.Date(2026, 2, 7, 12, 1, 0, 0, time.UTC)
	if !r.LastUsedAt().Equal(want) {
		t.Errorf("LastUsedAt = %v, want %v", r.LastUsedAt(), want)
	}
}

func TestFileUpdateKeepsZonelessRecords(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	content := `{"build":{"count":3,"last_used":"2024-01-01T10:00:00"},"test":{"count":9}}`
	if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	err := s.Update(ctx, func(st model.Stats) error {
		st["run"] = &model.UsageRecord{Count: 1}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	st := s.Load(ctx)
	for name, want := range map[string]int{"build": 3, "test": 9, "run": 1} {
		if r := st[name]; r == nil || r.Count != want {
			t.Errorf("%s = %+v, want count %d", name, r, want)
		}
	}
}

func TestFileSaveAndLoad(t *testing.T) {
	s := NewFile(filepath.Join(t.TempDir(), "nested", "dir", "stats.json"), nil)
	ctx := context.Background()
	ts := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)

	in := model.Stats{
		"build": {Count: 2, LastUsed: model.NewTimestamp(ts), Timestamps: []time.Time{ts, ts}, DurationsMS: []int64{1200, 800}},
		"test":  {Count: 1, Timestamps: []time.Time{ts}},
	}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := s.Load(ctx)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	b := got["build"]
	if b.Count != 2 || len(b.Timestamps) != 2 || len(b.DurationsMS) != 2 {
		t.Errorf("build = %+v", b)
	}
	if b.DurationsMS[0] != 1200 {
		t.Errorf("DurationsMS[0] = %d, want 1200", b.DurationsMS[0])
	}
	if !b.Timestamps[0].Equal(ts) {
		t.Errorf("Timestamps[0] = %v, want %v", b.Timestamps[0], ts)
	}
}

func TestFileSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFile(filepath.Join(dir, "stats.json"), nil)
	if err := s.Save(context.Background(), model.Stats{"build": {Count: 1}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "stats.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected directory contents: %v", names)
	}
}

func TestFileSaveNilWritesEmptyObject(t *testing.T) {
	s := newTestFileStore(t)
	if err := s.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bytes.TrimSpace(data), []byte("{}")) {
		t.Errorf("file = %q, want {}", data)
	}
}

func TestFileSaveReportsWriteFailure(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the parent directory should be.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFile(filepath.Join(blocker, "stats.json"), nil)
	if err := s.Save(context.Background(), model.Stats{"build": {Count: 1}}); err == nil {
		t.Fatal("expected error when parent is a file")
	}
}

func TestFileUpdateSequential(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	const n = 25
	for i := 0; i < n; i++ {
		err := s.Update(ctx, func(st model.Stats) error {
			r, ok := st["build"]
			if !ok {
				r = &model.UsageRecord{Name: "build"}
				st["build"] = r
			}
			r.Count++
			return nil
		})
		if err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}

	if got := s.Load(ctx)["build"].Count; got != n {
		t.Errorf("Count = %d, want %d", got, n)
	}
	if _, err := os.Stat(s.lockPath); err != nil {
		t.Errorf("expected lock file to exist: %v", err)
	}
}

func TestFileUpdateErrorSkipsSave(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, model.Stats{"build": {Count: 1}}); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(s.Path())

	boom := errors.New("boom")
	err := s.Update(ctx, func(st model.Stats) error {
		st["build"].Count = 100
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update err = %v, want boom", err)
	}
	after, _ := os.ReadFile(s.Path())
	if !bytes.Equal(before, after) {
		t.Errorf("file changed despite fn error:\nbefore: %s\nafter: %s", before, after)
	}
}

func TestOpenModes(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("", filepath.Join(dir, "stats.json"), nil)
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open(\"\") = %T, want *FileStore", s)
	}
	s.Close()

	s, err = Open(ModeSQLite, filepath.Join(dir, "stats.db"), nil)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("Open(sqlite) = %T, want *SQLiteStore", s)
	}
	s.Close()
	if _, err := os.Stat(filepath.Join(dir, "stats.db")); !os.IsNotExist(err) {
		t.Errorf("Open(sqlite) created the database (stat err = %v)", err)
	}

	if _, err := Open("redis", filepath.Join(dir, "x"), nil); err == nil {
		t.Error("expected error for unknown mode")
	}
}
