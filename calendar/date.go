/*
Package calendar provides the naive calendar arithmetic used by the engine.

PURPOSE:
  Shifts are planned against local wall-calendar dates, not instants. This
  package keeps those dates free of timezones: a Date is a (year, month, day)
  triple and a TimeOfDay is a number of minutes past midnight.

KEY CONCEPTS:
  - Date:      A single calendar day (comparable, usable as a map key)
  - Month:     A (year, month) pair, the unit of calendar and payroll views
  - Range:     A closed [Start, End] interval of dates
  - TimeOfDay: Local wall-clock time, minute precision

FORMATS:
  Dates are exchanged as ISO "YYYY-MM-DD", months as "YYYY-MM" and times
  as "HH:MM". Anything else is rejected with ErrInvalidDateFormat or
  ErrInvalidTimeFormat.

SEE ALSO:
  - month.go: Month views and grid helpers
  - range.go: Closed date intervals
  - timeofday.go: Shift start/end times
*/
package calendar

import (
	"time"
)

// =============================================================================
// DATE - A naive calendar day
// =============================================================================

// Date is a calendar day with no time or location attached.
// The zero value is not a valid date; use NewDate or ParseISODate.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Comparison is the result of CompareDates.
type Comparison int

const (
	Before Comparison = -1
	Equal  Comparison = 0
	After  Comparison = 1
)

func (c Comparison) String() string {
	switch c {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "equal"
	}
}

const isoLayout = "2006-01-02"

// NewDate normalizes its arguments the way time.Date does, so
// NewDate(2025, time.October, 32) is November 1st.
func NewDate(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime takes the wall-clock date of t in its own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current local date.
func Today() Date {
	return FromTime(time.Now())
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// Comparison helpers
func (d Date) Before(other Date) bool { return CompareDates(d, other) == Before }
func (d Date) After(other Date) bool  { return CompareDates(d, other) == After }
func (d Date) Equal(other Date) bool  { return d == other }

// Arithmetic
func (d Date) AddDays(n int) Date { return FromTime(d.Time().AddDate(0, 0, n)) }

// Properties
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }
func (d Date) MonthOf() Month        { return Month{Year: d.Year, Month: d.Month} }

func (d Date) String() string { return FormatISODate(d) }

// MarshalText encodes the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(FormatISODate(d)), nil
}

// UnmarshalText decodes a YYYY-MM-DD date.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseISODate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

// DaysInMonth returns the number of days in the given month, leap years included.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FormatISODate renders d as YYYY-MM-DD.
func FormatISODate(d Date) string {
	return d.Time().Format(isoLayout)
}

// ParseISODate parses a strict YYYY-MM-DD date. Out of range components
// such as 2025-02-30 are rejected rather than normalized.
func ParseISODate(s string) (Date, error) {
	if len(s) != len(isoLayout) {
		return Date{}, &FormatError{Kind: "date", Input: s}
	}
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return Date{}, &FormatError{Kind: "date", Input: s, Err: err}
	}
	return FromTime(t), nil
}

// CompareDates orders two dates chronologically.
func CompareDates(a, b Date) Comparison {
	switch {
	case a.Year != b.Year:
		return sign(a.Year - b.Year)
	case a.Month != b.Month:
		return sign(int(a.Month) - int(b.Month))
	default:
		return sign(a.Day - b.Day)
	}
}

// EnumerateDatesInRange lists every date from start to end inclusive.
// The result is empty when end is before start.
func EnumerateDatesInRange(start, end Date) []Date {
	if end.Before(start) {
		return []Date{}
	}
	days := make([]Date, 0, DaysBetween(start, end)+1)
	for current := start; !current.After(end); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// DaysBetween counts whole days from one date to another (negative if to < from).
func DaysBetween(from, to Date) int {
	return int(to.Time().Sub(from.Time()).Hours() / 24)
}

// MinDate and MaxDate pick the earlier and later of two dates.
func MinDate(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

func MaxDate(a, b Date) Date {
	if b.After(a) {
		return b
	}
	return a
}

func sign(n int) Comparison {
	switch {
	case n < 0:
		return Before
	case n > 0:
		return After
	default:
		return Equal
	}
}
