// Package model defines core types for cargo-sleek: usage records (one per
// observed command), dependency declarations, and build timings.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// UsageRecord is the persisted counter and history for one command key.
type UsageRecord struct {
	Name        string      `json:"-"`
	Count       int         `json:"count"`
	LastUsed    *Timestamp  `json:"last_used,omitempty"`
	Timestamps  []time.Time `json:"timestamps,omitempty"`
	DurationsMS []int64     `json:"durations_ms,omitempty"`
}

// UnmarshalJSON decodes a record, accepting every Timestamp form in the
// timestamps history as well as in last_used.
func (r *UsageRecord) UnmarshalJSON(data []byte) error {
	type plain UsageRecord
	aux := struct {
		*plain
		Timestamps []Timestamp `json:"timestamps,omitempty"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Timestamps = nil
	for _, ts := range aux.Timestamps {
		r.Timestamps = append(r.Timestamps, ts.Time)
	}
	return nil
}

// LastUsedAt returns the most recent invocation time, preferring the explicit
// last_used field and falling back to the newest timestamp. The zero time is
// returned when neither is present.
func (r *UsageRecord) LastUsedAt() time.Time {
	if r.LastUsed != nil && !r.LastUsed.IsZero() {
		return r.LastUsed.Time
	}
	if n := len(r.Timestamps); n > 0 {
		return r.Timestamps[n-1]
	}
	return time.Time{}
}

// AverageDuration returns the mean of DurationsMS, and false when no
// durations have been recorded.
func (r *UsageRecord) AverageDuration() (time.Duration, bool) {
	if len(r.DurationsMS) == 0 {
		return 0, false
	}
	var sum int64
	for _, d := range r.DurationsMS {
		sum += d
	}
	return time.Duration(sum/int64(len(r.DurationsMS))) * time.Millisecond, true
}

// Stats maps a command key to its usage record. It is always loaded and saved
// as a whole.
type Stats map[string]*UsageRecord

// Normalize fills in record names from their keys and drops entries that
// cannot be valid records (nil, or a count below one).
func (s Stats) Normalize() {
	for k, r := range s {
		if r == nil || r.Count < 1 {
			delete(s, k)
			continue
		}
		r.Name = k
	}
}

// Timestamp is a point in time that decodes from integer epoch seconds, an
// RFC 3339 string, or an ISO 8601 date-time without a zone offset (read as
// local time). It always encodes as RFC 3339.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, dropping the monotonic clock reading.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t.Round(0)}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := parseTime(s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	secs, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parsing epoch timestamp %s: %w", data, err)
	}
	t.Time = time.Unix(secs, 0).UTC()
	return nil
}

// Layouts accepted for timestamps that carry no zone offset.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: not RFC 3339 or ISO 8601", s)
}

// Dependency is a name declared in a manifest's dependency section. It carries
// no version semantics; only presence in the lock text matters.
type Dependency struct {
	Name string `json:"name"`
	Line int    `json:"line,omitempty"` // 1-based manifest line; 0 when unknown.
	Hint string `json:"hint,omitempty"` // closest lock package name, if any.
}

// BuildTiming is the result of one profiling run.
type BuildTiming struct {
	RunID        string        `json:"run_id"`
	Duration     time.Duration `json:"duration_ns"`
	ExitCode     int           `json:"exit_code"`
	Success      bool          `json:"success"`
	ReportText   string        `json:"-"`
	SlowestUnit  string        `json:"slowest_unit,omitempty"`
	ArtifactSize int64         `json:"artifact_size"`
	ReportPath   string        `json:"report_path,omitempty"`
}
