package dates

import (
	"fmt"
	"time"
)

// Parse accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC midnight).
// An empty string yields nil.
func Parse(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("invalid date %q", raw)
}

// EndOfDay turns a date-only upper bound into an inclusive one.
func EndOfDay(raw string, t *time.Time) *time.Time {
	if t == nil || len(raw) != len(time.DateOnly) {
		return t
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end
}
