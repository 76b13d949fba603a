/*
Package payroll derives per-user hours and income for a month of shifts.

PURPOSE:
  Payroll is a pure read over the engine. Nothing is cached; each report is
  recomputed from the current users and events, so it always reflects the
  latest wages and schedule.

CALCULATION (per shift):
  scheduled = end - start                    (whole minutes)
  paid      = max(0, scheduled - break)      (break defaults to 30 minutes)

  Per user, over every shift in the month:
    ScheduledHours = sum(scheduled) / 60
    PaidHours      = sum(paid) / 60
    Income         = sum(paid) * hourly wage / 60

  Minutes are summed as integers and converted once, with decimal
  arithmetic, so totals never drift. Rounding to two places happens only
  when a row is formatted for display.

EXAMPLE:
  Wage 20.00, 09:00-17:00 on the 1st, 09:00-13:30 on the 2nd:
    scheduled 480 + 270 = 750 min  -> 12.50 h
    paid      450 + 240 = 690 min  -> 11.50 h
    income    690 * 20 / 60        -> $230.00

SEE ALSO:
  - engine/engine.go: View, the consistent read used by Report
  - export/pdf.go: Renders a Report
*/
package payroll

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/calendar"
	"github.com/warp/shift-engine/engine"
)

// DefaultBreakMinutes is the unpaid break deducted from every shift.
const DefaultBreakMinutes = 30

var sixty = decimal.NewFromInt(60)

// =============================================================================
// REPORT
// =============================================================================

// Row is one user's payroll line for a month.
type Row struct {
	UserID         engine.UserID
	Name           string
	Shifts         int
	ScheduledHours decimal.Decimal
	PaidHours      decimal.Decimal
	Income         decimal.Decimal
}

// FormattedRow holds display strings rounded to two places.
type FormattedRow struct {
	Name           string
	ScheduledHours string
	PaidHours      string
	Income         string
}

// Format renders hours as "12.50" and income as "$230.00".
func (r Row) Format() FormattedRow {
	return FormattedRow{
		Name:           r.Name,
		ScheduledHours: r.ScheduledHours.StringFixed(2),
		PaidHours:      r.PaidHours.StringFixed(2),
		Income:         "$" + r.Income.StringFixed(2),
	}
}

// Report is the payroll of one month. Rows are ordered by user id and only
// include users with at least one shift in the month.
type Report struct {
	Month  calendar.Month
	Rows   []Row
	Totals Row
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Viewer provides a consistent read of users and events.
// *engine.Engine implements it.
type Viewer interface {
	View(fn func(r engine.Reader))
}

type Aggregator struct {
	breakMinutes int
}

type Option func(*Aggregator)

// WithBreakMinutes overrides the unpaid break per shift. Negative values
// are treated as zero.
func WithBreakMinutes(minutes int) Option {
	return func(a *Aggregator) {
		if minutes < 0 {
			minutes = 0
		}
		a.breakMinutes = minutes
	}
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{breakMinutes: DefaultBreakMinutes}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BreakMinutes returns the configured unpaid break.
func (a *Aggregator) BreakMinutes() int { return a.breakMinutes }

// Report computes the month's payroll under a single engine view.
func (a *Aggregator) Report(v Viewer, month calendar.Month) Report {
	var rep Report
	v.View(func(r engine.Reader) {
		rep = a.ReportForMonth(r, month)
	})
	return rep
}

// ReportForMonth computes the month's payroll from r.
func (a *Aggregator) ReportForMonth(r engine.Reader, month calendar.Month) Report {
	type acc struct {
		shifts    int
		scheduled int64
		paid      int64
	}
	byUser := make(map[engine.UserID]*acc)
	for _, ev := range r.EventsForMonth(month) {
		u, ok := byUser[ev.UserID]
		if !ok {
			u = &acc{}
			byUser[ev.UserID] = u
		}
		minutes := ev.DurationMinutes()
		u.shifts++
		u.scheduled += int64(minutes)
		u.paid += int64(a.paidMinutes(minutes))
	}

	ids := make([]engine.UserID, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rep := Report{Month: month, Rows: make([]Row, 0, len(ids))}
	rep.Totals = Row{Name: "Total", ScheduledHours: decimal.Zero, PaidHours: decimal.Zero, Income: decimal.Zero}
	for _, id := range ids {
		user, err := r.GetUser(id)
		if err != nil {
			// events never outlive their user; skip rather than misattribute
			continue
		}
		sums := byUser[id]
		paid := decimal.NewFromInt(sums.paid)
		row := Row{
			UserID:         id,
			Name:           user.DisplayName(),
			Shifts:         sums.shifts,
			ScheduledHours: decimal.NewFromInt(sums.scheduled).Div(sixty),
			PaidHours:      paid.Div(sixty),
			Income:         paid.Mul(user.HourlyWage).Div(sixty),
		}
		rep.Rows = append(rep.Rows, row)

		rep.Totals.Shifts += row.Shifts
		rep.Totals.ScheduledHours = rep.Totals.ScheduledHours.Add(row.ScheduledHours)
		rep.Totals.PaidHours = rep.Totals.PaidHours.Add(row.PaidHours)
		rep.Totals.Income = rep.Totals.Income.Add(row.Income)
	}
	return rep
}

func (a *Aggregator) paidMinutes(scheduled int) int {
	if paid := scheduled - a.breakMinutes; paid > 0 {
		return paid
	}
	return 0
}

// String summarizes the report for logs.
func (r Report) String() string {
	return fmt.Sprintf("payroll %s: %d users, %s paid hours, $%s",
		r.Month, len(r.Rows), r.Totals.PaidHours.StringFixed(2), r.Totals.Income.StringFixed(2))
}
