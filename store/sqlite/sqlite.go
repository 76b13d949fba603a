/*
Package sqlite provides a SQLite-backed implementation of engine.Persister.

PURPOSE:
  Keeps users and calendar events across restarts. The engine holds the
  authoritative state in memory and hands this store complete record sets
  after each mutation; on boot the engine loads them back.

INTERFACES IMPLEMENTED:
  engine.Persister:       LoadUsers, SaveUsers, LoadEvents, SaveEvents
  engine.AtomicPersister: SaveAll (users and events in one transaction)

KEY TABLES:
  users:           Staff records, wage stored as decimal text
  calendar_events: One row per shift, user_id REFERENCES users ON DELETE CASCADE

  The foreign key mirrors the engine's cascade: a user row can never be
  removed while leaving its shifts behind, even if a save is interrupted.

INDEXES:
  - idx_calendar_events_date:      Month range scans
  - idx_calendar_events_user_date: Per-user month queries

ENCODING:
  date        TEXT  YYYY-MM-DD
  start/end   TEXT  HH:MM
  hourly_wage TEXT  decimal string (no float rounding)
  created_at  TEXT  RFC3339Nano, UTC

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on.
  The pool is capped at one connection so ":memory:" databases are shared
  by every query.

USAGE:
  store, err := sqlite.New("./data/shifts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := engine.New(engine.WithPersister(store))
  err = eng.Load(ctx)

SEE ALSO:
  - engine/store.go: Persister contract
  - engine/engine.go: Save-after-mutate and rollback
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/calendar"
	"github.com/warp/shift-engine/engine"
)

// Store implements engine.AtomicPersister using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ engine.AtomicPersister = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// NewFromDB wraps an existing handle without migrating it.
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		hourly_wage TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS calendar_events (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		created_at TEXT NOT NULL,
		CHECK (start_time < end_time)
	);

	CREATE INDEX IF NOT EXISTS idx_calendar_events_date
		ON calendar_events(date, id);
	CREATE INDEX IF NOT EXISTS idx_calendar_events_user_date
		ON calendar_events(user_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// USERS
// =============================================================================

// LoadUsers returns every user ordered by id.
func (s *Store) LoadUsers(ctx context.Context) ([]engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, hourly_wage, created_at
		FROM users ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []engine.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SaveUsers makes the users table match users. Removed users take their
// events with them through the foreign key.
func (s *Store) SaveUsers(ctx context.Context, users []engine.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		return upsertUsers(ctx, tx, users)
	})
}

func upsertUsers(ctx context.Context, db execer, users []engine.User) error {
	keep := make([]any, 0, len(users))
	for _, u := range users {
		keep = append(keep, int64(u.ID))
	}
	prune := "DELETE FROM users"
	if len(keep) > 0 {
		prune += " WHERE id NOT IN (" + placeholders(len(keep)) + ")"
	}
	if _, err := db.ExecContext(ctx, prune, keep...); err != nil {
		return fmt.Errorf("failed to prune users: %w", err)
	}

	query := `
		INSERT INTO users (id, first_name, last_name, hourly_wage, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			hourly_wage = excluded.hourly_wage
	`
	for _, u := range users {
		_, err := db.ExecContext(ctx, query,
			int64(u.ID),
			u.FirstName,
			u.LastName,
			u.HourlyWage.String(),
			formatTime(u.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to save user %d: %w", u.ID, err)
		}
	}
	return nil
}

func scanUser(rows *sql.Rows) (engine.User, error) {
	var (
		u         engine.User
		id        int64
		wage      string
		createdAt string
	)
	if err := rows.Scan(&id, &u.FirstName, &u.LastName, &wage, &createdAt); err != nil {
		return engine.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	u.ID = engine.UserID(id)

	var err error
	if u.HourlyWage, err = decimal.NewFromString(wage); err != nil {
		return engine.User{}, fmt.Errorf("user %d: bad hourly_wage %q: %w", id, wage, err)
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return engine.User{}, fmt.Errorf("user %d: %w", id, err)
	}
	return u, nil
}

// =============================================================================
// CALENDAR EVENTS
// =============================================================================

// LoadEvents returns every event ordered by date, then id.
func (s *Store) LoadEvents(ctx context.Context) ([]engine.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, start_time, end_time, created_at
		FROM calendar_events ORDER BY date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []engine.CalendarEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SaveEvents replaces the stored events with events. Events are immutable,
// so a replace is equivalent to applying the adds and removes.
func (s *Store) SaveEvents(ctx context.Context, events []engine.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		return replaceEvents(ctx, tx, events)
	})
}

func replaceEvents(ctx context.Context, db execer, events []engine.CalendarEvent) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM calendar_events"); err != nil {
		return fmt.Errorf("failed to clear events: %w", err)
	}

	query := `
		INSERT INTO calendar_events (id, user_id, date, start_time, end_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, ev := range events {
		_, err := db.ExecContext(ctx, query,
			int64(ev.ID),
			int64(ev.UserID),
			calendar.FormatISODate(ev.Date),
			ev.Start.String(),
			ev.End.String(),
			formatTime(ev.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to save event %d: %w", ev.ID, err)
		}
	}
	return nil
}

func scanEvent(rows *sql.Rows) (engine.CalendarEvent, error) {
	var (
		ev                          engine.CalendarEvent
		id, userID                  int64
		date, start, end, createdAt string
	)
	if err := rows.Scan(&id, &userID, &date, &start, &end, &createdAt); err != nil {
		return engine.CalendarEvent{}, fmt.Errorf("failed to scan event: %w", err)
	}
	ev.ID = engine.EventID(id)
	ev.UserID = engine.UserID(userID)

	var err error
	if ev.Date, err = calendar.ParseISODate(date); err != nil {
		return engine.CalendarEvent{}, fmt.Errorf("event %d: %w", id, err)
	}
	if ev.Start, err = calendar.ParseTimeOfDay(start); err != nil {
		return engine.CalendarEvent{}, fmt.Errorf("event %d: %w", id, err)
	}
	if ev.End, err = calendar.ParseTimeOfDay(end); err != nil {
		return engine.CalendarEvent{}, fmt.Errorf("event %d: %w", id, err)
	}
	if ev.CreatedAt, err = parseTime(createdAt); err != nil {
		return engine.CalendarEvent{}, fmt.Errorf("event %d: %w", id, err)
	}
	return ev, nil
}

// =============================================================================
// ATOMIC SAVE
// =============================================================================

// SaveAll replaces users and events in a single transaction.
func (s *Store) SaveAll(ctx context.Context, users []engine.User, events []engine.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		// events first so the prune never has to cascade
		if _, err := tx.ExecContext(ctx, "DELETE FROM calendar_events"); err != nil {
			return fmt.Errorf("failed to clear events: %w", err)
		}
		if err := upsertUsers(ctx, tx, users); err != nil {
			return err
		}
		return replaceEvents(ctx, tx, events)
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad created_at %q: %w", s, err)
	}
	return t, nil
}
