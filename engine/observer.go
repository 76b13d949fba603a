package engine

// Observer receives notifications after engine operations. Implementations
// must be safe for concurrent use; metrics.Observer is the production one.
type Observer interface {
	// OperationCompleted is called once per mutation with its outcome.
	OperationCompleted(op string, err error)
	// EventsCreated counts shifts committed by AddEvent or Confirm.
	EventsCreated(n int)
	// EventsRemoved counts shifts removed, reason "manual" or "cascade".
	EventsRemoved(reason string, n int)
	// UsersChanged reports the directory size after a successful mutation.
	UsersChanged(total int)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) OperationCompleted(string, error) {}
func (NopObserver) EventsCreated(int)                {}
func (NopObserver) EventsRemoved(string, int)        {}
func (NopObserver) UsersChanged(int)                 {}
