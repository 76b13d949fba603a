/*
sweeper.go - Background pruning of idle range selections

PURPOSE:
  Range selections are keyed by the X-Session-ID header, so every client
  that clicks a day leaves a selector behind. The sweeper periodically
  drops selectors nobody has touched for IdleTimeout.

CONFIGURATION:
  - Interval:    How often to sweep (SHIFT_SWEEP_INTERVAL, default: 5m)
  - IdleTimeout: Age after which a selection is dropped
                 (SHIFT_SESSION_IDLE_TIMEOUT, default: 30m)
  A zero Interval disables the sweeper.

USAGE:
  sweeper := NewSessionSweeper(engine, log)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - engine/engine.go: PruneSessions
*/
package api

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/shift-engine/engine"
)

// SessionPruner drops selections idle for longer than the given duration.
type SessionPruner interface {
	PruneSessions(idle time.Duration) int
}

// SessionSweeper prunes idle range selections on a ticker.
type SessionSweeper struct {
	Pruner      SessionPruner
	Interval    time.Duration
	IdleTimeout time.Duration
	Log         zerolog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

var _ SessionPruner = (*engine.Engine)(nil)

// NewSessionSweeper creates a sweeper with the default interval and timeout.
func NewSessionSweeper(p SessionPruner, log zerolog.Logger) *SessionSweeper {
	return &SessionSweeper{
		Pruner:      p,
		Interval:    5 * time.Minute,
		IdleTimeout: 30 * time.Minute,
		Log:         log,
	}
}

// Start begins sweeping. Calling Start on a running sweeper is a no-op.
func (s *SessionSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Interval <= 0 {
		s.Log.Info().Msg("session sweeper disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker, s.stop)

	s.Log.Info().
		Dur("interval", s.Interval).
		Dur("idle_timeout", s.IdleTimeout).
		Msg("session sweeper started")
}

// Stop halts the sweeper and waits for an in-flight sweep to finish.
func (s *SessionSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.Log.Info().Msg("session sweeper stopped")
}

// Sweep runs one pruning pass and returns the number of dropped selections.
func (s *SessionSweeper) Sweep() int {
	n := s.Pruner.PruneSessions(s.IdleTimeout)
	if n > 0 {
		s.Log.Debug().Int("pruned", n).Msg("idle selections dropped")
	}
	return n
}

func (s *SessionSweeper) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-stop:
			return
		}
	}
}
