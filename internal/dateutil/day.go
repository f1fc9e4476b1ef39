// Package dateutil provides calendar-day arithmetic for the progression engine.
// All engine components share its notion of "today": the local calendar date,
// normalized to midnight, so that day gaps are whole-day counts rather than
// elapsed-millisecond ratios (which drift across DST changes).
package dateutil

import (
	"fmt"
	"time"
)

// KeyLayout is the ISO date format used for per-day storage keys.
const KeyLayout = "2006-01-02"

// Day is a calendar date in the local timezone, normalized to midnight.
type Day struct {
	t time.Time
}

// Today returns the calendar day containing now.
func Today(now time.Time) Day {
	return FromTime(now)
}

// FromTime normalizes t to its local calendar day.
func FromTime(t time.Time) Day {
	y, m, d := t.Date()
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// Parse reads a Day from its ISO key form (YYYY-MM-DD).
func Parse(key string) (Day, error) {
	t, err := time.ParseInLocation(KeyLayout, key, time.Local)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", key, err)
	}
	return Day{t: t}, nil
}

// Key returns the ISO form used as a storage-key suffix.
func (d Day) Key() string {
	return d.t.Format(KeyLayout)
}

// IsZero reports whether d is the zero Day (no date recorded).
func (d Day) IsZero() bool {
	return d.t.IsZero()
}

// Equal reports whether two Days name the same calendar date.
func (d Day) Equal(other Day) bool {
	return d.Key() == other.Key()
}

// Before reports whether d is an earlier calendar date than other.
func (d Day) Before(other Day) bool {
	return d.t.Before(other.t)
}

// AddDays returns the Day n calendar days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return FromTime(d.t.AddDate(0, 0, n))
}

// DaysBetween returns the number of whole calendar days from a to b.
// Positive when b is later than a. Both operands are already midnight-normalized,
// so the division cannot straddle a DST shift by more than an hour and rounding
// to the nearest day absorbs it.
func DaysBetween(a, b Day) int {
	hours := b.t.Sub(a.t).Hours()
	days := int(hours / 24)
	if rem := hours - float64(days)*24; rem > 12 {
		days++
	} else if rem < -12 {
		days--
	}
	return days
}
