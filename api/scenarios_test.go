package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-engine/calendar"
	"github.com/warp/shift-engine/engine"
)

func TestScenario_ListLoadCurrent(t *testing.T) {
	s := newTestServer(t)

	list := decodeBody[[]ScenarioDTO](t, s.do("GET", "/api/scenarios", nil))
	require.Len(t, list, 3)
	assert.Equal(t, "cascade-demo", list[0].ID)

	rec := s.do("GET", "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())

	rec = s.do("POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "payroll-example"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loaded := decodeBody[map[string]any](t, rec)
	assert.Equal(t, float64(1), loaded["users_created"])
	assert.Equal(t, float64(2), loaded["events_created"])

	current := decodeBody[ScenarioDTO](t, s.do("GET", "/api/scenarios/current", nil))
	assert.Equal(t, "payroll-example", current.ID)

	rep := decodeBody[PayrollDTO](t, s.do("GET", "/api/payroll/2025/10", nil))
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "$230.00", rep.Rows[0].Income)
}

func TestScenario_LoadReplacesData(t *testing.T) {
	// GIVEN: Manually created data
	// WHEN: A scenario is loaded
	// THEN: Only the scenario's users remain and ids restart at 1

	s := newTestServer(t)
	s.createUser("Old", "Data", "10")
	s.createUser("More", "Data", "10")

	rec := s.do("POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "cascade-demo"})
	require.Equal(t, http.StatusOK, rec.Code)

	users := decodeBody[[]UserDTO](t, s.do("GET", "/api/users", nil))
	require.Len(t, users, 2)
	assert.Equal(t, int64(1), users[0].ID)
	assert.Equal(t, "John", users[0].FirstName)
}

func TestScenario_UnknownAndReset(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown scenario", decodeBody[ErrorResponse](t, rec).Error)

	assert.Equal(t, http.StatusBadRequest, s.do("POST", "/api/scenarios/load", `{}`).Code)

	s.do("POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "month-boundary"})
	s.do("POST", "/api/selection/click", ClickRequest{Date: "2025-10-01"})

	rec = s.do("POST", "/api/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, decodeBody[[]UserDTO](t, s.do("GET", "/api/users", nil)))
	assert.Equal(t, "idle", decodeBody[SelectionDTO](t, s.do("GET", "/api/selection", nil)).State)
	assert.Equal(t, "null\n", s.do("GET", "/api/scenarios/current", nil).Body.String())
}

// =============================================================================
// SESSION SWEEPER
// =============================================================================

func TestSessionSweeper_Sweep(t *testing.T) {
	now := time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC)
	e := engine.New(engine.WithClock(func() time.Time { return now }))
	e.Click("old", calendar.NewDate(2025, time.October, 1))
	now = now.Add(time.Hour)
	e.Click("new", calendar.NewDate(2025, time.October, 2))

	sw := NewSessionSweeper(e, zerolog.Nop())
	assert.Equal(t, 1, sw.Sweep())
	assert.Equal(t, 1, e.Sessions())
}

func TestSessionSweeper_StartStop(t *testing.T) {
	e := engine.New()
	e.Click("tab", calendar.NewDate(2025, time.October, 1))

	sw := NewSessionSweeper(e, zerolog.Nop())
	sw.Interval = 5 * time.Millisecond
	sw.IdleTimeout = 0
	sw.Start()
	sw.Start()

	assert.Eventually(t, func() bool { return e.Sessions() == 0 }, time.Second, 5*time.Millisecond)
	sw.Stop()
	sw.Stop()
}

func TestSessionSweeper_Disabled(t *testing.T) {
	sw := NewSessionSweeper(engine.New(), zerolog.Nop())
	sw.Interval = 0
	sw.Start()
	assert.Nil(t, sw.ticker)
	sw.Stop()
}
