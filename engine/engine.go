/*
engine.go - Facade that serializes and persists engine operations

PURPOSE:
  Wires the User Directory, the Calendar Store and per-session Range
  Selectors together and is the only entry point the presentation layer
  uses. Every operation runs to completion under one mutex, so concurrent
  HTTP requests observe the engine as if it were single-threaded.

MUTATION FLOW:
  1. Lock
  2. Snapshot directory and calendar
  3. Apply the component operation
  4. Save all users and events through the Persister (if configured)
  5. On any failure restore the snapshot, so nothing partial is visible
  6. Notify the Observer and log

CASCADE:
  DeleteUser runs the directory delete, which removes the user's events
  through the calendar store before removing the user. Both steps and the
  save happen inside one locked mutation.

SESSIONS:
  Range selection is ephemeral UI state. Each presentation session gets
  its own RangeSelector keyed by an opaque session id; selectors are never
  persisted or rolled back.

SEE ALSO:
  - directory.go, calendar.go, selector.go: Components
  - store.go: Persister contract
  - payroll/aggregator.go: Consumes View for consistent reports
*/
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/calendar"
)

// Reader is the read-only view of users and events.
type Reader interface {
	ListUsers() []User
	GetUser(id UserID) (User, error)
	EventsForMonth(month calendar.Month) []CalendarEvent
	EventsForUserAndMonth(userID UserID, month calendar.Month) []CalendarEvent
	MonthView(month calendar.Month) []DayEvents
}

// Engine is safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	users     *Directory
	events    *CalendarStore
	sessions  map[string]*RangeSelector
	touched   map[string]time.Time
	now       func() time.Time
	persister Persister
	observer  Observer
	log       zerolog.Logger
}

type Option func(*Engine)

// WithPersister saves state after every mutation.
func WithPersister(p Persister) Option {
	return func(e *Engine) { e.persister = p }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l.With().Str("component", "engine").Logger() }
}

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.users.now = now
		e.events.now = now
	}
}

func New(opts ...Option) *Engine {
	users := NewDirectory()
	events := NewCalendarStore(users)
	users.SetCascade(events)

	e := &Engine{
		users:    users,
		events:   events,
		sessions: make(map[string]*RangeSelector),
		touched:  make(map[string]time.Time),
		now:      time.Now,
		observer: NopObserver{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Load replaces in-memory state with what the persister holds.
func (e *Engine) Load(ctx context.Context) error {
	if e.persister == nil {
		return nil
	}
	users, err := e.persister.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	events, err := e.persister.LoadEvents(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	known := make(map[UserID]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}
	for _, ev := range events {
		if !known[ev.UserID] {
			return fmt.Errorf("load events: event %d references unknown user %d", ev.ID, ev.UserID)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.users.load(users)
	e.events.load(events)
	e.clearSessions()
	e.observer.UsersChanged(e.users.Len())
	e.log.Info().Int("users", len(users)).Int("events", len(events)).Msg("state loaded")
	return nil
}

// Reset removes every user, event and selection.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mutateLocked(ctx, "reset", func() error {
		e.users.load(nil)
		e.events.load(nil)
		e.clearSessions()
		return nil
	})
}

// =============================================================================
// USER DIRECTORY
// =============================================================================

func (e *Engine) AddUser(ctx context.Context, firstName, lastName string, hourlyWage decimal.Decimal) (User, error) {
	var u User
	err := e.mutate(ctx, "add_user", func() (err error) {
		u, err = e.users.AddUser(firstName, lastName, hourlyWage)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (e *Engine) UpdateWage(ctx context.Context, id UserID, newWage decimal.Decimal) (User, error) {
	var u User
	err := e.mutate(ctx, "update_wage", func() (err error) {
		u, err = e.users.UpdateWage(id, newWage)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// DeleteUser removes the user and, atomically, all of their events.
func (e *Engine) DeleteUser(ctx context.Context, id UserID) error {
	var cascaded int
	err := e.mutate(ctx, "delete_user", func() (err error) {
		cascaded, err = e.users.DeleteUser(id)
		return err
	})
	if err != nil {
		return err
	}
	e.observer.EventsRemoved("cascade", cascaded)
	return nil
}

func (e *Engine) ListUsers() []User {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.users.ListUsers()
}

func (e *Engine) GetUser(id UserID) (User, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.users.GetUser(id)
}

// =============================================================================
// CALENDAR STORE
// =============================================================================

func (e *Engine) AddEvent(ctx context.Context, userID UserID, date calendar.Date, start, end calendar.TimeOfDay) (CalendarEvent, error) {
	var ev CalendarEvent
	err := e.mutate(ctx, "add_event", func() (err error) {
		ev, err = e.events.AddEvent(userID, date, start, end)
		return err
	})
	if err != nil {
		return CalendarEvent{}, err
	}
	e.observer.EventsCreated(1)
	return ev, nil
}

func (e *Engine) RemoveEvent(ctx context.Context, id EventID) error {
	err := e.mutate(ctx, "remove_event", func() error {
		return e.events.RemoveEvent(id)
	})
	if err != nil {
		return err
	}
	e.observer.EventsRemoved("manual", 1)
	return nil
}

func (e *Engine) GetEvent(id EventID) (CalendarEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events.GetEvent(id)
}

func (e *Engine) EventsForMonth(month calendar.Month) []CalendarEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events.EventsForMonth(month)
}

func (e *Engine) EventsForUserAndMonth(userID UserID, month calendar.Month) []CalendarEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events.EventsForUserAndMonth(userID, month)
}

func (e *Engine) MonthView(month calendar.Month) []DayEvents {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events.MonthView(month)
}

// View runs fn with a consistent read-only view of users and events.
// fn must not call back into the Engine.
func (e *Engine) View(fn func(r Reader)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(view{users: e.users, events: e.events})
}

type view struct {
	users  *Directory
	events *CalendarStore
}

func (v view) ListUsers() []User               { return v.users.ListUsers() }
func (v view) GetUser(id UserID) (User, error) { return v.users.GetUser(id) }

func (v view) MonthView(m calendar.Month) []DayEvents {
	return v.events.MonthView(m)
}

func (v view) EventsForMonth(m calendar.Month) []CalendarEvent {
	return v.events.EventsForMonth(m)
}

func (v view) EventsForUserAndMonth(id UserID, m calendar.Month) []CalendarEvent {
	return v.events.EventsForUserAndMonth(id, m)
}

// =============================================================================
// RANGE SELECTION
// =============================================================================

func (e *Engine) Click(session string, date calendar.Date) SelectionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selector(session).Click(date)
}

// Confirm turns the session's pending range into one event per day.
// The session is Idle afterwards regardless of the outcome.
func (e *Engine) Confirm(ctx context.Context, session string, userID UserID, start, end calendar.TimeOfDay) ([]CalendarEvent, error) {
	e.mu.Lock()
	sel := e.selector(session)
	var created []CalendarEvent
	err := e.mutateLocked(ctx, "confirm_selection", func() (err error) {
		created, err = sel.Confirm(e.events, userID, start, end)
		return err
	})
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	e.observer.EventsCreated(len(created))
	return created, nil
}

func (e *Engine) Cancel(session string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sel, ok := e.sessions[session]; ok {
		sel.Cancel()
	}
}

// Selection returns the session's state without creating a selector.
func (e *Engine) Selection(session string) SelectionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sel, ok := e.sessions[session]; ok {
		return sel.State()
	}
	return Idle{}
}

func (e *Engine) InRange(session string, date calendar.Date) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sel, ok := e.sessions[session]; ok {
		return sel.InRange(date)
	}
	return false
}

// PruneSessions drops selectors not touched within idle and returns how
// many were dropped. Pending selections of dropped sessions are lost.
func (e *Engine) PruneSessions(idle time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	cutoff := e.now().Add(-idle)
	pruned := 0
	for id, at := range e.touched {
		if at.Before(cutoff) {
			delete(e.sessions, id)
			delete(e.touched, id)
			pruned++
		}
	}
	return pruned
}

// Sessions is the number of live selectors.
func (e *Engine) Sessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func (e *Engine) selector(session string) *RangeSelector {
	sel, ok := e.sessions[session]
	if !ok {
		sel = NewRangeSelector()
		e.sessions[session] = sel
	}
	e.touched[session] = e.now()
	return sel
}

func (e *Engine) clearSessions() {
	e.sessions = make(map[string]*RangeSelector)
	e.touched = make(map[string]time.Time)
}

// =============================================================================
// MUTATION PLUMBING
// =============================================================================

type engineSnapshot struct {
	users  directorySnapshot
	events calendarSnapshot
}

func (e *Engine) mutate(ctx context.Context, op string, fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mutateLocked(ctx, op, fn)
}

func (e *Engine) mutateLocked(ctx context.Context, op string, fn func() error) error {
	snap := engineSnapshot{users: e.users.snapshot(), events: e.events.snapshot()}

	err := fn()
	if err == nil && e.persister != nil {
		if saveErr := save(ctx, e.persister, e.users.ListUsers(), e.events.AllEvents()); saveErr != nil {
			err = fmt.Errorf("%s: save: %w", op, saveErr)
		}
	}
	if err != nil {
		e.users.restore(snap.users)
		e.events.restore(snap.events)
	}

	e.observer.OperationCompleted(op, err)
	if err != nil {
		evt := e.log.Info()
		if !IsClientError(err) && !IsNotFound(err) {
			evt = e.log.Error()
		}
		evt.Str("operation", op).Str("error_kind", ErrorKind(err)).Err(err).Msg("operation rejected")
		return err
	}

	e.observer.UsersChanged(e.users.Len())
	e.log.Debug().Str("operation", op).Int("users", e.users.Len()).Int("events", e.events.Len()).Msg("operation applied")
	return nil
}
