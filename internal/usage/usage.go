// Package usage implements command usage tracking on top of a store.Store:
// counting invocations, recording their durations, ranking, and resetting.
//
// Every operation is a full read-modify-write of the store. Nothing is cached
// between calls.
package usage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/scbrown/cargo-sleek/internal/model"
	"github.com/scbrown/cargo-sleek/internal/store"
)

// KeyPolicy decides how a passthrough invocation maps to a usage key.
type KeyPolicy string

const (
	// KeyCommand keys records by the bare subcommand ("build").
	KeyCommand KeyPolicy = "command"
	// KeyFull keys records by the whole forwarded command line
	// ("build --release").
	KeyFull KeyPolicy = "full"
)

// ParseKeyPolicy converts a config value into a KeyPolicy. The empty string
// selects KeyCommand.
func ParseKeyPolicy(s string) (KeyPolicy, error) {
	switch KeyPolicy(s) {
	case "", KeyCommand:
		return KeyCommand, nil
	case KeyFull:
		return KeyFull, nil
	default:
		return "", fmt.Errorf("unknown key mode %q (want %q or %q)", s, KeyCommand, KeyFull)
	}
}

// Key returns the usage key for running name with args.
func (p KeyPolicy) Key(name string, args []string) string {
	if p != KeyFull || len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// Tracker records and reports command usage.
type Tracker struct {
	store store.Store
	now   func() time.Time
}

// NewTracker returns a Tracker persisting through s.
func NewTracker(s store.Store) *Tracker {
	return &Tracker{store: s, now: time.Now}
}

// Track counts one invocation of key, creating its record if needed, and
// appends the current time to its history.
func (t *Tracker) Track(ctx context.Context, key string) error {
	now := t.now().Round(0)
	return t.store.Update(ctx, func(st model.Stats) error {
		r, ok := st[key]
		if !ok {
			r = &model.UsageRecord{Name: key}
			st[key] = r
		}
		r.Count++
		r.Timestamps = append(r.Timestamps, now)
		r.LastUsed = model.NewTimestamp(now)
		return nil
	})
}

// RecordDuration appends d, in milliseconds, to the history of key. A key with
// no record (for example one reset in the meantime) is left untouched.
func (t *Tracker) RecordDuration(ctx context.Context, key string, d time.Duration) error {
	return t.store.Update(ctx, func(st model.Stats) error {
		if r, ok := st[key]; ok {
			r.DurationsMS = append(r.DurationsMS, d.Milliseconds())
		}
		return nil
	})
}

// Ranked returns all records ordered by count descending. Equal counts are
// ordered by name.
func (t *Tracker) Ranked(ctx context.Context) []model.UsageRecord {
	st := t.store.Load(ctx)
	out := make([]model.UsageRecord, 0, len(st))
	for _, r := range st {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Entry is one command's recent invocation history.
type Entry struct {
	Name  string      `json:"name"`
	Count int         `json:"count"`
	Times []time.Time `json:"times"`
}

// History returns, in ranked order, up to limit of the most recent invocation
// times of each command, newest first. A limit of zero returns all of them.
func (t *Tracker) History(ctx context.Context, limit int) []Entry {
	ranked := t.Ranked(ctx)
	out := make([]Entry, 0, len(ranked))
	for _, r := range ranked {
		times := make([]time.Time, 0, len(r.Timestamps))
		for i := len(r.Timestamps) - 1; i >= 0; i-- {
			times = append(times, r.Timestamps[i])
			if limit > 0 && len(times) == limit {
				break
			}
		}
		out = append(out, Entry{Name: r.Name, Count: r.Count, Times: times})
	}
	return out
}

// Average is one command's mean duration.
type Average struct {
	Name    string        `json:"name"`
	Samples int           `json:"samples"`
	Mean    time.Duration `json:"mean_ns"`
}

// Averages returns the mean recorded duration of every command that has at
// least one duration sample, slowest first.
func (t *Tracker) Averages(ctx context.Context) []Average {
	st := t.store.Load(ctx)
	var out []Average
	for _, r := range st {
		mean, ok := r.AverageDuration()
		if !ok {
			continue
		}
		out = append(out, Average{Name: r.Name, Samples: len(r.DurationsMS), Mean: mean})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean != out[j].Mean {
			return out[i].Mean > out[j].Mean
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Reset clears all statistics when confirmed is true and reports whether it
// did. Without confirmation the store is not touched.
func (t *Tracker) Reset(ctx context.Context, confirmed bool) (bool, error) {
	if !confirmed {
		return false, nil
	}
	err := t.store.Update(ctx, func(st model.Stats) error {
		clear(st)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("reset stats: %w", err)
	}
	return true, nil
}
