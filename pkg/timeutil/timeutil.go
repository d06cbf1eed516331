// Package timeutil provides time helpers shared by the analytics code:
// a swappable clock, UTC day boundaries, rolling windows, and the date
// formats accepted on query strings.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Clock abstracts the current time so callers can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock returns wall-clock time in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant.
type FixedClock struct{ T time.Time }

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.T }

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// Day is 24 hours.
const Day = 24 * time.Hour

// StartOfDay returns 00:00:00 UTC of t's day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59.999999999 UTC of t's day.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// DaysSince returns the number of whole 24h periods between t and now.
func DaysSince(t, now time.Time) int {
	if now.Before(t) {
		return 0
	}
	return int(now.Sub(t) / Day)
}

// ══════════════════════════════════════════════════════════════════════════════
// ROLLING WINDOWS
// ══════════════════════════════════════════════════════════════════════════════

// Window is a half-open time interval [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls in [From, To).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// RollingWindows returns the window of length size ending at now and the
// window of the same length immediately before it.
func RollingWindows(now time.Time, size time.Duration) (current, previous Window) {
	current = Window{From: now.Add(-size), To: now.Add(time.Nanosecond)}
	previous = Window{From: now.Add(-2 * size), To: current.From}
	return current, previous
}

// ══════════════════════════════════════════════════════════════════════════════
// PARSING
// ══════════════════════════════════════════════════════════════════════════════

// DateLayout is the date-only format accepted alongside RFC3339.
const DateLayout = "2006-01-02"

// ParseDateParam parses an RFC3339 timestamp or a YYYY-MM-DD date.
// A date-only value resolves to the start of that day, or to its end when
// endOfDay is set, so that an inclusive range covers the whole day.
// Empty input yields the zero time.
func ParseDateParam(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected RFC3339 or YYYY-MM-DD", value)
	}
	if endOfDay {
		return EndOfDay(t), nil
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
