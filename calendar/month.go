package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - The unit of calendar and payroll views
// =============================================================================

// Month identifies one calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth validates the month number (1-12).
func NewMonth(year int, month int) (Month, error) {
	if month < 1 || month > 12 {
		return Month{}, &FormatError{Kind: "month", Input: fmt.Sprintf("%04d-%02d", year, month)}
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// ParseMonth parses a strict YYYY-MM month.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil || len(s) != len("2006-01") {
		return Month{}, &FormatError{Kind: "month", Input: s, Err: err}
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// CurrentMonth returns the month containing today.
func CurrentMonth() Month {
	return Today().MonthOf()
}

func (m Month) First() Date    { return Date{Year: m.Year, Month: m.Month, Day: 1} }
func (m Month) Last() Date     { return Date{Year: m.Year, Month: m.Month, Day: m.Len()} }
func (m Month) Len() int       { return DaysInMonth(m.Year, m.Month) }
func (m Month) Range() Range   { return Range{Start: m.First(), End: m.Last()} }
func (m Month) Days() []Date   { return EnumerateDatesInRange(m.First(), m.Last()) }
func (m Month) Next() Month    { return m.First().AddDays(m.Len()).MonthOf() }
func (m Month) Prev() Month    { return m.First().AddDays(-1).MonthOf() }
func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// Contains reports whether d falls within the month.
func (m Month) Contains(d Date) bool {
	return d.Year == m.Year && d.Month == m.Month
}

// FirstWeekday is the weekday of the 1st, i.e. the number of blank
// leading cells in a Sunday-first month grid.
func (m Month) FirstWeekday() time.Weekday {
	return m.First().Weekday()
}
