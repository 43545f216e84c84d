// Package dates provides the calendar-date vocabulary shared by the rest of
// the library: string keys in the canonical YYYY-MM-DD form and inclusive
// date windows. Keys are plain local calendar dates; no timezone or
// time-of-day information is carried anywhere.
package dates

import (
	"errors"
	"fmt"
	"time"
)

// KeyLayout is the canonical layout of a date key.
const KeyLayout = "2006-01-02"

// Key is a calendar date in YYYY-MM-DD form. Because the form is
// zero-padded ISO, lexicographic comparison equals chronological comparison.
type Key string

var (
	// ErrInvalidKey is returned when a string is not a valid YYYY-MM-DD date.
	ErrInvalidKey = errors.New("invalid date key")
	// ErrInvalidWindow is returned when a window's end precedes its start
	// or either bound is not a valid key.
	ErrInvalidWindow = errors.New("invalid date window")
)

// ParseKey validates s and returns it as a Key.
func ParseKey(s string) (Key, error) {
	if _, err := time.Parse(KeyLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Key(s), nil
}

// KeyOf converts a time to the key of its calendar date, in the time's
// own location.
func KeyOf(t time.Time) Key {
	return Key(t.Format(KeyLayout))
}

// Valid reports whether the key is a well-formed calendar date.
func (k Key) Valid() bool {
	_, err := time.Parse(KeyLayout, string(k))
	return err == nil
}

// Time returns the key as midnight UTC. Invalid keys return the zero time.
func (k Key) Time() time.Time {
	t, err := time.Parse(KeyLayout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the key n days after k (n may be negative).
func (k Key) AddDays(n int) Key {
	return KeyOf(k.Time().AddDate(0, 0, n))
}

// Before reports whether k is strictly earlier than other.
func (k Key) Before(other Key) bool { return k < other }

// After reports whether k is strictly later than other.
func (k Key) After(other Key) bool { return k > other }

// Weekday returns the day of week, Sunday = 0.
func (k Key) Weekday() time.Weekday {
	return k.Time().Weekday()
}

// Day returns the day of month, 1-31.
func (k Key) Day() int {
	return k.Time().Day()
}

// MonthIndex returns a linear month counter (year*12 + month) so that
// subtracting two indices yields the number of calendar months between keys.
func (k Key) MonthIndex() int {
	t := k.Time()
	return t.Year()*12 + int(t.Month()) - 1
}

// MonthStart returns the first day of the key's month.
func (k Key) MonthStart() Key {
	t := k.Time()
	return KeyOf(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
}

// MonthEnd returns the last day of the key's month.
func (k Key) MonthEnd() Key {
	t := k.Time()
	return KeyOf(time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC))
}

// AddMonths returns the first day of the month n months after k's month.
// Going through the month start avoids end-of-month overflow surprises.
func (k Key) AddMonths(n int) Key {
	t := k.Time()
	return KeyOf(time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC))
}

// DaysBetween returns the number of days from a to b; negative when b is
// earlier than a.
func DaysBetween(a, b Key) int {
	return int(b.Time().Sub(a.Time()) / (24 * time.Hour))
}

// DaysInMonth returns the length of the month containing k.
func DaysInMonth(k Key) int {
	t := k.Time()
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Window is an inclusive date range.
type Window struct {
	Start Key
	End   Key
}

// NewWindow validates both bounds and their order.
func NewWindow(start, end Key) (Window, error) {
	if !start.Valid() || !end.Valid() {
		return Window{}, fmt.Errorf("%w: [%s, %s]", ErrInvalidWindow, start, end)
	}
	if end.Before(start) {
		return Window{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidWindow, end, start)
	}
	return Window{Start: start, End: end}, nil
}

// Contains reports whether k falls inside the window, bounds included.
func (w Window) Contains(k Key) bool {
	return !k.Before(w.Start) && !k.After(w.End)
}

// Union returns the smallest window covering both w and other.
func (w Window) Union(other Window) Window {
	u := w
	if other.Start.Before(u.Start) {
		u.Start = other.Start
	}
	if other.End.After(u.End) {
		u.End = other.End
	}
	return u
}

// Covers reports whether w fully contains other.
func (w Window) Covers(other Window) bool {
	return !other.Start.Before(w.Start) && !other.End.After(w.End)
}
