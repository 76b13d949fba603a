/*
selector.go - Two-click date range selection

PURPOSE:
  Staff are scheduled by clicking a first day, extending the highlight with
  further clicks, and confirming with a user and shift times. The selector
  is a two-state machine; it owns no events and only talks to the calendar
  store when a selection is confirmed.

STATES:
  Idle                       no anchor
  AnchorSet{Anchor, Pending} first day chosen, Pending highlighted

TRANSITIONS:
  Idle      --Click(d)-->   AnchorSet{d, [d, d]}
  AnchorSet --Click(d)-->   AnchorSet{anchor, [min(anchor, d), max(anchor, d)]}
  AnchorSet --Confirm-->    Idle (one event per pending day, all or nothing)
  AnchorSet --Cancel-->     Idle

  Further clicks keep extending from the original anchor; clicking the
  anchor again collapses the range to that single day.

SEE ALSO:
  - calendar.go: AddEvents, the batch insert used by Confirm
  - engine.go: Per-session selectors
*/
package engine

import "github.com/warp/shift-engine/calendar"

// =============================================================================
// STATES
// =============================================================================

// SelectionState is either Idle or AnchorSet.
type SelectionState interface {
	isSelectionState()
}

// Idle means no date has been picked.
type Idle struct{}

// AnchorSet holds the first clicked date and the highlighted range.
type AnchorSet struct {
	Anchor  calendar.Date
	Pending calendar.Range
}

func (Idle) isSelectionState()      {}
func (AnchorSet) isSelectionState() {}

// EventBatcher creates one event per date atomically.
type EventBatcher interface {
	AddEvents(userID UserID, dates []calendar.Date, start, end calendar.TimeOfDay) ([]CalendarEvent, error)
}

// =============================================================================
// RANGE SELECTOR
// =============================================================================

type RangeSelector struct {
	state SelectionState
}

func NewRangeSelector() *RangeSelector {
	return &RangeSelector{state: Idle{}}
}

// State returns the current state.
func (s *RangeSelector) State() SelectionState {
	return s.state
}

// Click sets the anchor or extends the pending range from it.
func (s *RangeSelector) Click(date calendar.Date) SelectionState {
	switch st := s.state.(type) {
	case AnchorSet:
		s.state = AnchorSet{Anchor: st.Anchor, Pending: calendar.NewRange(st.Anchor, date)}
	default:
		s.state = AnchorSet{Anchor: date, Pending: calendar.SingleDay(date)}
	}
	return s.state
}

// Confirm creates one event per day of the pending range through batch.
// The selector returns to Idle whether or not creation succeeds.
func (s *RangeSelector) Confirm(batch EventBatcher, userID UserID, start, end calendar.TimeOfDay) ([]CalendarEvent, error) {
	st, ok := s.state.(AnchorSet)
	s.state = Idle{}
	if !ok {
		return nil, invalid("selection", "no date range selected")
	}
	if err := validateShift(start, end); err != nil {
		return nil, err
	}
	return batch.AddEvents(userID, st.Pending.Days(), start, end)
}

// Cancel discards the pending range.
func (s *RangeSelector) Cancel() {
	s.state = Idle{}
}

// InRange reports whether date should carry the in-range flag.
func (s *RangeSelector) InRange(date calendar.Date) bool {
	st, ok := s.state.(AnchorSet)
	return ok && st.Pending.Contains(date)
}

// DaysSelected is the length of the pending range, zero when Idle.
func (s *RangeSelector) DaysSelected() int {
	if st, ok := s.state.(AnchorSet); ok {
		return st.Pending.Len()
	}
	return 0
}
