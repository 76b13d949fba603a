package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-engine/calendar"
	"github.com/warp/shift-engine/engine"
	"github.com/warp/shift-engine/payroll"
)

var october = calendar.Month{Year: 2025, Month: time.October}

func oct(day int) calendar.Date { return calendar.NewDate(2025, time.October, day) }

func at(s string) calendar.TimeOfDay { return calendar.MustTimeOfDay(s) }

func addUser(t *testing.T, e *engine.Engine, first, last, wage string) engine.User {
	t.Helper()
	u, err := e.AddUser(context.Background(), first, last, decimal.RequireFromString(wage))
	require.NoError(t, err)
	return u
}

func addShift(t *testing.T, e *engine.Engine, id engine.UserID, d calendar.Date, start, end string) {
	t.Helper()
	_, err := e.AddEvent(context.Background(), id, d, at(start), at(end))
	require.NoError(t, err)
}

func TestReport_PayrollExample(t *testing.T) {
	// GIVEN: Payroll Test at $20.00/h with an 8h and a 4.5h shift in October
	// WHEN: The October report is computed
	// THEN: 12.50 scheduled, 11.50 paid, $230.00 income

	e := engine.New()
	u := addUser(t, e, "Payroll", "Test", "20.00")
	addShift(t, e, u.ID, oct(1), "09:00", "17:00")
	addShift(t, e, u.ID, oct(2), "09:00", "13:30")

	rep := payroll.NewAggregator().Report(e, october)
	require.Len(t, rep.Rows, 1)

	row := rep.Rows[0]
	assert.Equal(t, u.ID, row.UserID)
	assert.Equal(t, 2, row.Shifts)
	assert.True(t, row.ScheduledHours.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, row.PaidHours.Equal(decimal.RequireFromString("11.5")))
	assert.True(t, row.Income.Equal(decimal.NewFromInt(230)))

	assert.Equal(t, payroll.FormattedRow{
		Name:           "Payroll Test",
		ScheduledHours: "12.50",
		PaidHours:      "11.50",
		Income:         "$230.00",
	}, row.Format())
}

func TestReport_EmptyMonth(t *testing.T) {
	e := engine.New()
	addUser(t, e, "Idle", "User", "15")

	rep := payroll.NewAggregator().Report(e, october)
	assert.Empty(t, rep.Rows)
	assert.NotNil(t, rep.Rows)
	assert.Equal(t, "0.00", rep.Totals.Income.StringFixed(2))
}

func TestReport_ShortShiftPaysNothing(t *testing.T) {
	e := engine.New()
	u := addUser(t, e, "Short", "Shift", "40")
	addShift(t, e, u.ID, oct(3), "09:00", "09:20")
	addShift(t, e, u.ID, oct(4), "09:00", "09:30")

	rep := payroll.NewAggregator().Report(e, october)
	require.Len(t, rep.Rows, 1)

	f := rep.Rows[0].Format()
	assert.Equal(t, "0.83", f.ScheduledHours)
	assert.Equal(t, "0.00", f.PaidHours)
	assert.Equal(t, "$0.00", f.Income)
}

func TestReport_RowsOrderedAndScopedToMonth(t *testing.T) {
	e := engine.New()
	first := addUser(t, e, "Ann", "First", "10")
	second := addUser(t, e, "Bob", "Second", "20")
	third := addUser(t, e, "Cal", "Third", "30")

	addShift(t, e, third.ID, oct(5), "08:00", "12:00")
	addShift(t, e, first.ID, oct(6), "08:00", "12:00")
	addShift(t, e, second.ID, calendar.NewDate(2025, time.November, 1), "08:00", "12:00")

	rep := payroll.NewAggregator().Report(e, october)
	require.Len(t, rep.Rows, 2, "users without October shifts have no row")
	assert.Equal(t, first.ID, rep.Rows[0].UserID)
	assert.Equal(t, third.ID, rep.Rows[1].UserID)

	// 3.5h paid each: 35 + 105
	assert.Equal(t, "$140.00", rep.Totals.Format().Income)
	assert.Equal(t, "7.00", rep.Totals.Format().PaidHours)
	assert.Equal(t, 2, rep.Totals.Shifts)
}

func TestReport_ReflectsWageChanges(t *testing.T) {
	e := engine.New()
	u := addUser(t, e, "Wage", "Change", "20")
	addShift(t, e, u.ID, oct(1), "09:00", "17:00")

	agg := payroll.NewAggregator()
	assert.Equal(t, "$150.00", agg.Report(e, october).Rows[0].Format().Income)

	_, err := e.UpdateWage(context.Background(), u.ID, decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.Equal(t, "$225.00", agg.Report(e, october).Rows[0].Format().Income)
}

func TestReport_DeletedUserDisappears(t *testing.T) {
	e := engine.New()
	u := addUser(t, e, "Gone", "Soon", "20")
	addShift(t, e, u.ID, oct(1), "09:00", "17:00")
	require.NoError(t, e.DeleteUser(context.Background(), u.ID))

	assert.Empty(t, payroll.NewAggregator().Report(e, october).Rows)
}

func TestWithBreakMinutes(t *testing.T) {
	e := engine.New()
	u := addUser(t, e, "No", "Break", "20")
	addShift(t, e, u.ID, oct(1), "09:00", "17:00")

	agg := payroll.NewAggregator(payroll.WithBreakMinutes(0))
	assert.Equal(t, 0, agg.BreakMinutes())
	assert.Equal(t, "8.00", agg.Report(e, october).Rows[0].Format().PaidHours)

	assert.Equal(t, 0, payroll.NewAggregator(payroll.WithBreakMinutes(-15)).BreakMinutes())
}
