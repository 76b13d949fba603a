package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-engine/calendar"
	"github.com/warp/shift-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func oct(day int) calendar.Date {
	return calendar.NewDate(2025, time.October, day)
}

func at(s string) calendar.TimeOfDay {
	return calendar.MustTimeOfDay(s)
}

var (
	october   = calendar.Month{Year: 2025, Month: time.October}
	september = calendar.Month{Year: 2025, Month: time.September}
	november  = calendar.Month{Year: 2025, Month: time.November}
)

func wage(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	return engine.New(opts...)
}

func mustAddUser(t *testing.T, e *engine.Engine, first, last, hourly string) engine.User {
	t.Helper()
	u, err := e.AddUser(context.Background(), first, last, wage(hourly))
	require.NoError(t, err)
	return u
}

// memoryPersister records every save and can be told to fail.
type memoryPersister struct {
	users   []engine.User
	events  []engine.CalendarEvent
	saves   int
	failErr error
}

func (p *memoryPersister) LoadUsers(context.Context) ([]engine.User, error) { return p.users, nil }
func (p *memoryPersister) LoadEvents(context.Context) ([]engine.CalendarEvent, error) {
	return p.events, nil
}

func (p *memoryPersister) SaveUsers(_ context.Context, users []engine.User) error {
	if p.failErr != nil {
		return p.failErr
	}
	p.users = users
	p.saves++
	return nil
}

func (p *memoryPersister) SaveEvents(_ context.Context, events []engine.CalendarEvent) error {
	if p.failErr != nil {
		return p.failErr
	}
	p.events = events
	return nil
}

// =============================================================================
// USER DIRECTORY
// =============================================================================

func TestAddUser_AssignsSequentialIDs(t *testing.T) {
	e := newTestEngine(t)

	john := mustAddUser(t, e, "John", "Doe", "25.50")
	jane := mustAddUser(t, e, " Jane ", "Roe", "30")

	assert.Equal(t, engine.UserID(1), john.ID)
	assert.Equal(t, engine.UserID(2), jane.ID)
	assert.Equal(t, "Jane", jane.FirstName, "names are trimmed")
	assert.Equal(t, "John Doe", john.DisplayName())

	users := e.ListUsers()
	require.Len(t, users, 2)
	assert.Equal(t, john.ID, users[0].ID, "insertion order")
	assert.Equal(t, jane.ID, users[1].ID)
}

func TestAddUser_Validation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		first, last, wage string
		field             string
	}{
		{"", "Doe", "10", "first_name"},
		{"John", "  ", "10", "last_name"},
		{"John", "Doe", "-0.01", "hourly_wage"},
	}
	for _, tc := range cases {
		_, err := e.AddUser(ctx, tc.first, tc.last, wage(tc.wage))
		require.Error(t, err)
		assert.ErrorIs(t, err, engine.ErrValidation)

		var vErr *engine.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, tc.field, vErr.Field)
	}
	assert.Empty(t, e.ListUsers(), "failed adds leave the directory unchanged")

	u := mustAddUser(t, e, "Zero", "Wage", "0")
	assert.Equal(t, engine.UserID(1), u.ID, "rejected adds do not consume ids")
}

func TestUpdateWage(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	u := mustAddUser(t, e, "John", "Doe", "25.50")

	updated, err := e.UpdateWage(ctx, u.ID, wage("30.00"))
	require.NoError(t, err)
	assert.True(t, updated.HourlyWage.Equal(wage("30")))

	got, err := e.GetUser(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "30", got.HourlyWage.String())

	_, err = e.UpdateWage(ctx, 99, wage("1"))
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = e.UpdateWage(ctx, u.ID, wage("-5"))
	assert.ErrorIs(t, err, engine.ErrValidation)

	got, _ = e.GetUser(u.ID)
	assert.Equal(t, "30", got.HourlyWage.String(), "rejected update leaves wage unchanged")
}

func TestDeleteUser_NotFound(t *testing.T) {
	e := newTestEngine(t)

	err := e.DeleteUser(context.Background(), 42)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	var nf *engine.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "user", nf.Kind)
	assert.Equal(t, int64(42), nf.ID)
}

// =============================================================================
// CASCADE INTEGRITY
// =============================================================================

func TestDeleteUser_CascadesEvents(t *testing.T) {
	// GIVEN: Two users with shifts in two different months
	// WHEN: One user is deleted
	// THEN: None of their events remain in any month; the other user's stay

	e := newTestEngine(t)
	ctx := context.Background()
	john := mustAddUser(t, e, "John", "Doe", "30")
	jane := mustAddUser(t, e, "Jane", "Roe", "20")

	_, err := e.AddEvent(ctx, john.ID, oct(15), at("09:00"), at("17:00"))
	require.NoError(t, err)
	_, err = e.AddEvent(ctx, john.ID, calendar.NewDate(2025, time.November, 3), at("09:00"), at("12:00"))
	require.NoError(t, err)
	_, err = e.AddEvent(ctx, jane.ID, oct(15), at("10:00"), at("14:00"))
	require.NoError(t, err)

	require.NoError(t, e.DeleteUser(ctx, john.ID))

	for _, m := range []calendar.Month{september, october, november} {
		for _, ev := range e.EventsForMonth(m) {
			assert.NotEqual(t, john.ID, ev.UserID, "event %d of deleted user survived in %s", ev.ID, m)
		}
	}
	assert.Len(t, e.EventsForMonth(october), 1)
	assert.Empty(t, e.EventsForMonth(november))
	assert.Len(t, e.ListUsers(), 1)

	_, err = e.AddEvent(ctx, john.ID, oct(20), at("09:00"), at("10:00"))
	assert.ErrorIs(t, err, engine.ErrNotFound, "deleted user cannot receive new events")
}

func TestDeleteUser_WithoutEvents(t *testing.T) {
	e := newTestEngine(t)
	u := mustAddUser(t, e, "Solo", "User", "10")

	require.NoError(t, e.DeleteUser(context.Background(), u.ID))
	assert.Empty(t, e.ListUsers())
}

// =============================================================================
// CALENDAR STORE
// =============================================================================

func TestAddEvent_Validation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	u := mustAddUser(t, e, "John", "Doe", "30")

	_, err := e.AddEvent(ctx, 99, oct(10), at("09:00"), at("17:00"))
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = e.AddEvent(ctx, u.ID, oct(10), at("17:00"), at("09:00"))
	assert.ErrorIs(t, err, engine.ErrValidation)

	_, err = e.AddEvent(ctx, u.ID, oct(10), at("09:00"), at("09:00"))
	assert.ErrorIs(t, err, engine.ErrValidation, "zero-length shift is rejected")

	assert.Empty(t, e.EventsForMonth(october), "rejected adds create no events")
}

func TestEventsForMonth_OrderAndIsolation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	u := mustAddUser(t, e, "John", "Doe", "30")

	late, err := e.AddEvent(ctx, u.ID, oct(20), at("09:00"), at("10:00"))
	require.NoError(t, err)
	early, err := e.AddEvent(ctx, u.ID, oct(5), at("09:00"), at("10:00"))
	require.NoError(t, err)
	sameDayFirst, err := e.AddEvent(ctx, u.ID, oct(12), at("13:00"), at("15:00"))
	require.NoError(t, err)
	sameDaySecond, err := e.AddEvent(ctx, u.ID, oct(12), at("08:00"), at("09:00"))
	require.NoError(t, err)
	_, err = e.AddEvent(ctx, u.ID, calendar.NewDate(2025, time.September, 30), at("08:00"), at("09:00"))
	require.NoError(t, err)

	events := e.EventsForMonth(october)
	require.Len(t, events, 4)
	assert.Equal(t, []engine.EventID{early.ID, sameDayFirst.ID, sameDaySecond.ID, late.ID},
		[]engine.EventID{events[0].ID, events[1].ID, events[2].ID, events[3].ID},
		"ordered by date, then creation order within a day")

	assert.Len(t, e.EventsForMonth(september), 1)
	assert.Empty(t, e.EventsForMonth(november))
}

func TestEventsForMonth_IdempotentRequery(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	u := mustAddUser(t, e, "John", "Doe", "30")
	_, err := e.AddEvent(ctx, u.ID, oct(10), at("09:00"), at("17:00"))
	require.NoError(t, err)

	first := e.EventsForMonth(october)
	second := e.EventsForMonth(october)
	assert.Equal(t, first, second)

	first[0].UserID = 999
	assert.Equal(t, u.ID, e.EventsForMonth(october)[0].UserID, "results are copies")
}

func TestOverlappingShiftsAreKept(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	u := mustAddUser(t, e, "John", "Doe", "30")

	_, err := e.AddEvent(ctx, u.ID, oct(10), at("09:00"), at("17:00"))
	require.NoError(t, err)
	_, err = e.AddEvent(ctx, u.ID, oct(10), at("09:00"), at("17:00"))
	require.NoError(t, err)

	assert.Len(t, e.EventsForUserAndMonth(u.ID, october), 2)
}

func TestRemoveEvent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	u := mustAddUser(t, e, "John", "Doe", "30")
	ev, err := e.AddEvent(ctx, u.ID, oct(10), at("09:00"), at("17:00"))
	require.NoError(t, err)

	require.NoError(t, e.RemoveEvent(ctx, ev.ID))
	assert.Empty(t, e.EventsForMonth(october))

	err = e.RemoveEvent(ctx, ev.ID)
	assert.ErrorIs(t, err, engine.ErrNotFound)
	_, err = e.GetEvent(ev.ID)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestEventsForUserAndMonth(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	john := mustAddUser(t, e, "John", "Doe", "30")
	jane := mustAddUser(t, e, "Jane", "Roe", "20")

	_, err := e.AddEvent(ctx, john.ID, oct(1), at("09:00"), at("17:00"))
	require.NoError(t, err)
	_, err = e.AddEvent(ctx, jane.ID, oct(2), at("09:00"), at("17:00"))
	require.NoError(t, err)
	_, err = e.AddEvent(ctx, john.ID, oct(31), at("09:00"), at("17:00"))
	require.NoError(t, err)

	johns := e.EventsForUserAndMonth(john.ID, october)
	require.Len(t, johns, 2)
	assert.Equal(t, oct(1), johns[0].Date)
	assert.Equal(t, oct(31), johns[1].Date)
	assert.Len(t, e.EventsForUserAndMonth(jane.ID, october), 1)
	assert.Empty(t, e.EventsForUserAndMonth(jane.ID, november))
}

func TestMonthView(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	u := mustAddUser(t, e, "John", "Doe", "30")
	_, err := e.AddEvent(ctx, u.ID, oct(15), at("09:00"), at("17:00"))
	require.NoError(t, err)

	days := e.MonthView(october)
	require.Len(t, days, 31)
	assert.Equal(t, oct(1), days[0].Date)
	assert.Equal(t, oct(31), days[30].Date)
	assert.Len(t, days[14].Events, 1)
	assert.Empty(t, days[13].Events)
	assert.NotNil(t, days[13].Events)
}

// =============================================================================
// PERSISTENCE AND ROLLBACK
// =============================================================================

func TestMutation_SavesThroughPersister(t *testing.T) {
	p := &memoryPersister{}
	e := newTestEngine(t, engine.WithPersister(p))
	ctx := context.Background()

	u := mustAddUser(t, e, "John", "Doe", "30")
	_, err := e.AddEvent(ctx, u.ID, oct(10), at("09:00"), at("17:00"))
	require.NoError(t, err)

	assert.Equal(t, 2, p.saves)
	assert.Len(t, p.users, 1)
	assert.Len(t, p.events, 1)
}

func TestMutation_RollsBackWhenSaveFails(t *testing.T) {
	// GIVEN: A user with a shift, persisted
	// WHEN: Deleting the user fails to save
	// THEN: Both the user and the shift are still visible

	p := &memoryPersister{}
	e := newTestEngine(t, engine.WithPersister(p))
	ctx := context.Background()
	u := mustAddUser(t, e, "John", "Doe", "30")
	_, err := e.AddEvent(ctx, u.ID, oct(10), at("09:00"), at("17:00"))
	require.NoError(t, err)

	p.failErr = errors.New("disk full")

	err = e.DeleteUser(ctx, u.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, p.failErr)
	assert.Equal(t, "unexpected", engine.ErrorKind(err))

	assert.Len(t, e.ListUsers(), 1)
	assert.Len(t, e.EventsForMonth(october), 1)

	_, err = e.AddUser(ctx, "Jane", "Roe", wage("10"))
	require.Error(t, err)
	p.failErr = nil
	jane := mustAddUser(t, e, "Jane", "Roe", "10")
	assert.Equal(t, engine.UserID(2), jane.ID, "rolled back add does not consume an id")
}

func TestLoad_RestoresStateAndSequences(t *testing.T) {
	p := &memoryPersister{
		users: []engine.User{
			{ID: 3, FirstName: "Payroll", LastName: "Test", HourlyWage: wage("20")},
			{ID: 7, FirstName: "John", LastName: "Doe", HourlyWage: wage("30")},
		},
		events: []engine.CalendarEvent{
			{ID: 11, UserID: 7, Date: oct(12), Start: at("09:00"), End: at("10:00")},
			{ID: 4, UserID: 3, Date: oct(12), Start: at("09:00"), End: at("17:00")},
			{ID: 5, UserID: 3, Date: oct(1), Start: at("09:00"), End: at("17:00")},
		},
	}
	e := newTestEngine(t, engine.WithPersister(p))
	ctx := context.Background()
	require.NoError(t, e.Load(ctx))

	events := e.EventsForMonth(october)
	require.Len(t, events, 3)
	assert.Equal(t, engine.EventID(5), events[0].ID)
	assert.Equal(t, engine.EventID(4), events[1].ID)
	assert.Equal(t, engine.EventID(11), events[2].ID)

	u := mustAddUser(t, e, "New", "Hire", "15")
	assert.Equal(t, engine.UserID(8), u.ID)

	ev, err := e.AddEvent(ctx, u.ID, oct(2), at("09:00"), at("10:00"))
	require.NoError(t, err)
	assert.Equal(t, engine.EventID(12), ev.ID)
}

func TestLoad_RejectsDanglingEvents(t *testing.T) {
	p := &memoryPersister{
		events: []engine.CalendarEvent{{ID: 1, UserID: 9, Date: oct(1), Start: at("09:00"), End: at("10:00")}},
	}
	e := newTestEngine(t, engine.WithPersister(p))

	err := e.Load(context.Background())
	assert.ErrorContains(t, err, "unknown user 9")
	assert.Empty(t, e.EventsForMonth(october))
}

func TestReset(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	u := mustAddUser(t, e, "John", "Doe", "30")
	_, err := e.AddEvent(ctx, u.ID, oct(10), at("09:00"), at("17:00"))
	require.NoError(t, err)
	e.Click("s1", oct(3))

	require.NoError(t, e.Reset(ctx))
	assert.Empty(t, e.ListUsers())
	assert.Empty(t, e.EventsForMonth(october))
	assert.Equal(t, engine.Idle{}, e.Selection("s1"))
}

func TestWithClock_StampsCreatedAt(t *testing.T) {
	fixed := time.Date(2025, time.October, 1, 8, 0, 0, 0, time.UTC)
	e := newTestEngine(t, engine.WithClock(func() time.Time { return fixed }))
	u := mustAddUser(t, e, "John", "Doe", "30")
	assert.Equal(t, fixed, u.CreatedAt)
}

// =============================================================================
// OBSERVER
// =============================================================================

type recordingObserver struct {
	ops     []string
	failed  []string
	created int
	removed map[string]int
	users   int
}

func (o *recordingObserver) OperationCompleted(op string, err error) {
	o.ops = append(o.ops, op)
	if err != nil {
		o.failed = append(o.failed, op)
	}
}
func (o *recordingObserver) EventsCreated(n int) { o.created += n }
func (o *recordingObserver) EventsRemoved(reason string, n int) {
	if o.removed == nil {
		o.removed = map[string]int{}
	}
	o.removed[reason] += n
}
func (o *recordingObserver) UsersChanged(total int) { o.users = total }

func TestObserver_ReceivesNotifications(t *testing.T) {
	obs := &recordingObserver{}
	e := newTestEngine(t, engine.WithObserver(obs))
	ctx := context.Background()

	u := mustAddUser(t, e, "John", "Doe", "30")
	e.Click("s", oct(1))
	e.Click("s", oct(3))
	_, err := e.Confirm(ctx, "s", u.ID, at("09:00"), at("17:00"))
	require.NoError(t, err)
	_, err = e.AddEvent(ctx, u.ID, oct(5), at("17:00"), at("09:00"))
	require.Error(t, err)
	require.NoError(t, e.DeleteUser(ctx, u.ID))

	assert.Equal(t, []string{"add_user", "confirm_selection", "add_event", "delete_user"}, obs.ops)
	assert.Equal(t, []string{"add_event"}, obs.failed)
	assert.Equal(t, 3, obs.created)
	assert.Equal(t, 3, obs.removed["cascade"])
	assert.Equal(t, 0, obs.users)
}
