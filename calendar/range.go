package calendar

// =============================================================================
// RANGE - A closed interval of dates
// =============================================================================

// Range is the closed interval [Start, End]. A Range built with NewRange
// always has Start <= End.
type Range struct {
	Start Date
	End   Date
}

// NewRange orders its endpoints, so NewRange(b, a) == NewRange(a, b).
func NewRange(a, b Date) Range {
	return Range{Start: MinDate(a, b), End: MaxDate(a, b)}
}

// SingleDay is the one-day range [d, d].
func SingleDay(d Date) Range {
	return Range{Start: d, End: d}
}

// Contains returns true if d is within [Start, End].
func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns all dates in the range.
func (r Range) Days() []Date {
	return EnumerateDatesInRange(r.Start, r.End)
}

// Len is the number of days in the range, zero when inverted.
func (r Range) Len() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return DaysBetween(r.Start, r.End) + 1
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
