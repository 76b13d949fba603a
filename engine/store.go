/*
store.go - Persistence contract for the engine's records

PURPOSE:
  The engine keeps users and events in memory and hands complete copies to
  a storage adapter after every successful mutation. The adapter never
  decides anything; it loads and saves the plain entity shapes.

KEY INTERFACES:
  Persister:       load-all / save-all for users and events
  AtomicPersister: optional single-transaction save of both sets

ATOMICITY:
  If the adapter implements AtomicPersister the engine saves users and
  events in one call, so a crash cannot persist a user deletion without
  its cascade. Otherwise users are saved before events.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite adapter
  - engine tests: failing and recording fakes

SEE ALSO:
  - engine.go: Calls the persister after each mutation and rolls back
    in-memory state when saving fails
*/
package engine

import "context"

// Persister loads and saves complete record sets.
type Persister interface {
	LoadUsers(ctx context.Context) ([]User, error)
	SaveUsers(ctx context.Context, users []User) error
	LoadEvents(ctx context.Context) ([]CalendarEvent, error)
	SaveEvents(ctx context.Context, events []CalendarEvent) error
}

// AtomicPersister saves users and events in one transaction.
type AtomicPersister interface {
	Persister
	SaveAll(ctx context.Context, users []User, events []CalendarEvent) error
}

func save(ctx context.Context, p Persister, users []User, events []CalendarEvent) error {
	if ap, ok := p.(AtomicPersister); ok {
		return ap.SaveAll(ctx, users, events)
	}
	if err := p.SaveUsers(ctx, users); err != nil {
		return err
	}
	return p.SaveEvents(ctx, events)
}
