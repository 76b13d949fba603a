/*
scenarios.go - Demo scenario and reset endpoints

PURPOSE:
  Lets a demo operator wipe the engine or replace its contents with one of
  the catalog scenarios (built-in or loaded from SHIFT_SCENARIO_FILE).

ENDPOINTS:
  GET  /api/scenarios          List scenarios
  GET  /api/scenarios/current  Last loaded scenario (null after a reset)
  POST /api/scenarios/load     {"scenario_id": "payroll-example"}
  POST /api/reset              Clear all users, shifts and selections

NOTE:
  Loading a scenario resets all data. Only use in development/demo
  environments.

SEE ALSO:
  - scenario/scenario.go: Catalog and Apply
  - scenario/scenarios.yaml: Built-in definitions
*/
package api

import (
	"errors"
	"net/http"

	"github.com/warp/shift-engine/scenario"
)

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	list := h.Scenarios.List()
	dtos := make([]ScenarioDTO, len(list))
	for i, s := range list {
		dtos[i] = toScenarioDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	id := h.currentScenario
	h.mu.Unlock()

	if id == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s, err := h.Scenarios.Get(id)
	if err != nil {
		writeJSON(w, http.StatusOK, ScenarioDTO{ID: id, Name: id, Description: "Currently loaded scenario"})
		return
	}
	writeJSON(w, http.StatusOK, toScenarioDTO(s))
}

// LoadScenario resets the engine and applies a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.Scenarios.Get(req.ScenarioID)
	if err != nil {
		writeErrorField(w, http.StatusBadRequest, "Unknown scenario", err, "scenario_id")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	res, err := scenario.Apply(r.Context(), h.Engine, s)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.currentScenario = s.ID

	h.Log.Info().
		Str("scenario", s.ID).
		Int("users", res.Users).
		Int("events", res.Events).
		Msg("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "loaded",
		"scenario_id":    s.ID,
		"users_created":  res.Users,
		"events_created": res.Events,
	})
}

// ResetDatabase clears all users, shifts and selections.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Engine.Reset(r.Context()); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func isUnknownScenario(err error) bool {
	return errors.Is(err, scenario.ErrUnknownScenario)
}
