/*
Package engine implements the scheduling core: staff records, calendar
shifts, date-range selection and the facade that keeps them consistent.

PURPOSE:
  The engine owns two kinds of records. Users are staff members with an
  hourly wage; calendar events are single-day shifts assigned to a user.
  Every event references an existing user, and deleting a user removes
  their events in the same step.

KEY CONCEPTS IN THIS FILE (types.go):
  - User:          Staff record (name, hourly wage)
  - CalendarEvent: One shift on one date, immutable once created
  - DayEvents:     A day cell of the month view

DESIGN PRINCIPLES:
  1. Precision: wages use decimal.Decimal, shift lengths are whole minutes
  2. Immutability: events are never edited, only removed
  3. Month views are queries over one date-ordered store, never partitions

USAGE:
  e := engine.New()
  u, _ := e.AddUser(ctx, "Payroll", "Test", decimal.NewFromInt(20))
  e.Click("session", calendar.NewDate(2025, time.October, 10))
  e.Confirm(ctx, "session", u.ID, nine, five)

SEE ALSO:
  - directory.go: User Directory
  - calendar.go: Calendar Store
  - selector.go: Range Selector state machine
  - engine.go: Facade, locking and persistence
*/
package engine

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/calendar"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// UserID and EventID are assigned sequentially starting at 1.
type UserID int64
type EventID int64

func (id UserID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id EventID) String() string { return strconv.FormatInt(int64(id), 10) }

// =============================================================================
// USER - Staff record
// =============================================================================

type User struct {
	ID         UserID
	FirstName  string
	LastName   string
	HourlyWage decimal.Decimal
	CreatedAt  time.Time
}

// DisplayName is "First Last", as shown in calendar cells and payroll rows.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// =============================================================================
// CALENDAR EVENT - One shift on one date
// =============================================================================

type CalendarEvent struct {
	ID        EventID
	UserID    UserID
	Date      calendar.Date
	Start     calendar.TimeOfDay
	End       calendar.TimeOfDay
	CreatedAt time.Time
}

// DurationMinutes is the scheduled length of the shift.
func (e CalendarEvent) DurationMinutes() int {
	return e.End.Minutes() - e.Start.Minutes()
}

// =============================================================================
// MONTH VIEW
// =============================================================================

// DayEvents is one day of a month view with its shifts in creation order.
type DayEvents struct {
	Date   calendar.Date
	Events []CalendarEvent
}
