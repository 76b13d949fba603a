/*
handlers.go - HTTP API handlers for the scheduling and payroll engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates every decision to the engine.

ENDPOINTS:
  Users:
    GET    /api/users                     List users (insertion order)
    POST   /api/users                     Create user
    GET    /api/users/{id}                Get user
    PUT    /api/users/{id}/wage           Update hourly wage
    DELETE /api/users/{id}                Delete user and all their shifts
    GET    /api/users/{id}/events         Shifts of one user (?month=YYYY-MM)

  Calendar:
    GET    /api/calendar/{year}/{month}   Month grid with in-range flags
    POST   /api/events                    Create a single shift
    DELETE /api/events/{id}               Remove a shift

  Range selection (per X-Session-ID):
    GET    /api/selection                 Current state
    POST   /api/selection/click           Set anchor / extend range
    POST   /api/selection/confirm         One shift per selected day
    POST   /api/selection/cancel          Discard selection

  Payroll and exports: see exports.go
  Scenarios and reset: see scenarios.go

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Engine: The only owner of users, events and selections
  - Payroll: Aggregator with the configured unpaid break
  - Scenarios: Catalog of demo data sets

REQUEST FLOW:
  1. Parse path/query parameters and JSON body
  2. Validate body shape (validator tags)
  3. Call the engine
  4. Serialize response
  5. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON {"error", "details", "field"}:
  - 400: Validation errors, malformed dates/times, bad request bodies
  - 404: Unknown user or event
  - 500: Internal errors (storage failures)

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/warp/shift-engine/calendar"
	"github.com/warp/shift-engine/engine"
	"github.com/warp/shift-engine/payroll"
	"github.com/warp/shift-engine/scenario"
)

// SessionHeader identifies the caller's range selection.
const SessionHeader = "X-Session-ID"

const defaultSession = "default"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine    *engine.Engine
	Payroll   *payroll.Aggregator
	Scenarios *scenario.Catalog
	Log       zerolog.Logger

	// Health is pinged by /healthz when set.
	Health HealthChecker

	// Now stamps exports; replaced in tests.
	Now func() time.Time

	validate *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler with the default aggregator and the
// built-in scenarios.
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{
		Engine:    eng,
		Payroll:   payroll.NewAggregator(),
		Scenarios: scenario.Builtin(),
		Log:       zerolog.Nop(),
		Now:       time.Now,
		validate:  newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns all users in insertion order.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.Engine.ListUsers()
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUser adds a user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.Engine.AddUser(r.Context(), req.FirstName, req.LastName, *req.HourlyWage)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

// GetUser returns a single user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := h.Engine.GetUser(engine.UserID(id))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// UpdateWage changes a user's hourly wage. Future payroll uses the new wage.
func (h *Handler) UpdateWage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateWageRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.Engine.UpdateWage(r.Context(), engine.UserID(id), *req.HourlyWage)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// DeleteUser removes a user together with all of their shifts.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Engine.DeleteUser(r.Context(), engine.UserID(id)); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "user_id": id})
}

// GetUserEvents returns one user's shifts for ?month=YYYY-MM (default:
// current month).
func (h *Handler) GetUserEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	month := calendar.CurrentMonth()
	if q := r.URL.Query().Get("month"); q != "" {
		m, err := calendar.ParseMonth(q)
		if err != nil {
			writeErrorField(w, http.StatusBadRequest, "Invalid month", err, "month")
			return
		}
		month = m
	}

	var (
		events []engine.CalendarEvent
		n      names
		err    error
	)
	h.Engine.View(func(v engine.Reader) {
		if _, err = v.GetUser(engine.UserID(id)); err != nil {
			return
		}
		events = v.EventsForUserAndMonth(engine.UserID(id), month)
		n = namesOf(v.ListUsers())
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events, n))
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetMonthView returns the month grid: every day with its shifts in
// creation order and the caller's in-range flag.
func (h *Handler) GetMonthView(w http.ResponseWriter, r *http.Request) {
	month, ok := pathMonth(w, r)
	if !ok {
		return
	}
	session := sessionID(r)

	var (
		days []engine.DayEvents
		n    names
	)
	h.Engine.View(func(v engine.Reader) {
		days = v.MonthView(month)
		n = namesOf(v.ListUsers())
	})
	sel := h.Engine.Selection(session)

	var pending *calendar.Range
	if as, ok := sel.(engine.AnchorSet); ok {
		pending = &as.Pending
	}

	dto := MonthViewDTO{
		Month:         month.String(),
		Year:          month.Year,
		MonthNumber:   int(month.Month),
		MonthName:     month.Month.String(),
		DaysInMonth:   month.Len(),
		LeadingBlanks: int(month.FirstWeekday()),
		Prev:          month.Prev().String(),
		Next:          month.Next().String(),
		Days:          make([]DayDTO, len(days)),
		Selection:     toSelectionDTO(sel),
	}
	for i, d := range days {
		dto.Days[i] = DayDTO{
			Date:    calendar.FormatISODate(d.Date),
			Day:     d.Date.Day,
			Weekday: d.Date.Weekday().String(),
			InRange: pending != nil && pending.Contains(d.Date),
			Events:  toEventDTOs(d.Events, n),
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// CreateEvent schedules a single shift.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	date, err := calendar.ParseISODate(req.Date)
	if err != nil {
		writeErrorField(w, http.StatusBadRequest, "Invalid date", err, "date")
		return
	}
	start, end, ok := parseShift(w, req.StartTime, req.EndTime)
	if !ok {
		return
	}

	ev, err := h.Engine.AddEvent(r.Context(), engine.UserID(req.UserID), date, start, end)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(ev, h.userNames()))
}

// DeleteEvent removes a single shift.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Engine.RemoveEvent(r.Context(), engine.EventID(id)); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "event_id": id})
}

// =============================================================================
// RANGE SELECTION HANDLERS
// =============================================================================

// GetSelection returns the caller's selection state.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSelectionDTO(h.Engine.Selection(sessionID(r))))
}

// ClickDate sets the anchor or extends the pending range.
func (h *Handler) ClickDate(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	date, err := calendar.ParseISODate(req.Date)
	if err != nil {
		writeErrorField(w, http.StatusBadRequest, "Invalid date", err, "date")
		return
	}
	writeJSON(w, http.StatusOK, toSelectionDTO(h.Engine.Click(sessionID(r), date)))
}

// ConfirmSelection creates one shift per selected day, all or nothing.
// The selection is cleared whether or not creation succeeds.
func (h *Handler) ConfirmSelection(w http.ResponseWriter, r *http.Request) {
	session := sessionID(r)
	var req ConfirmRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	start, end, ok := parseShift(w, req.StartTime, req.EndTime)
	if !ok {
		return
	}

	created, err := h.Engine.Confirm(r.Context(), session, engine.UserID(req.UserID), start, end)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ConfirmResponse{
		Created:   toEventDTOs(created, h.userNames()),
		Count:     len(created),
		Selection: toSelectionDTO(h.Engine.Selection(session)),
	})
}

// CancelSelection discards the pending range.
func (h *Handler) CancelSelection(w http.ResponseWriter, r *http.Request) {
	session := sessionID(r)
	h.Engine.Cancel(session)
	writeJSON(w, http.StatusOK, toSelectionDTO(h.Engine.Selection(session)))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) userNames() names {
	return namesOf(h.Engine.ListUsers())
}

func sessionID(r *http.Request) string {
	if s := strings.TrimSpace(r.Header.Get(SessionHeader)); s != "" {
		return s
	}
	return defaultSession
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeErrorField(w, http.StatusBadRequest, "Invalid id", fmt.Errorf("%q is not a positive integer", raw), "id")
		return 0, false
	}
	return id, true
}

func pathMonth(w http.ResponseWriter, r *http.Request) (calendar.Month, bool) {
	year, yErr := strconv.Atoi(chi.URLParam(r, "year"))
	month, mErr := strconv.Atoi(chi.URLParam(r, "month"))
	if yErr != nil || mErr != nil {
		writeErrorField(w, http.StatusBadRequest, "Invalid month", errors.New("year and month must be integers"), "month")
		return calendar.Month{}, false
	}
	m, err := calendar.NewMonth(year, month)
	if err != nil {
		writeErrorField(w, http.StatusBadRequest, "Invalid month", err, "month")
		return calendar.Month{}, false
	}
	return m, true
}

func parseShift(w http.ResponseWriter, startRaw, endRaw string) (calendar.TimeOfDay, calendar.TimeOfDay, bool) {
	start, err := calendar.ParseTimeOfDay(startRaw)
	if err != nil {
		writeErrorField(w, http.StatusBadRequest, "Invalid time", err, "start_time")
		return 0, 0, false
	}
	end, err := calendar.ParseTimeOfDay(endRaw)
	if err != nil {
		writeErrorField(w, http.StatusBadRequest, "Invalid time", err, "end_time")
		return 0, 0, false
	}
	return start, end, true
}

// decodeAndValidate writes a 400 and returns false when the body is not
// valid JSON for dst or fails its validator tags.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			writeErrorField(w, http.StatusBadRequest, "Validation failed", errors.New(strings.Join(msgs, "; ")), ve[0].Field())
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// fieldError converts a single validator error into a readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// writeEngineError maps engine errors to status codes.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *engine.ValidationError
	var nfErr *engine.NotFoundError
	var fErr *calendar.FormatError

	switch {
	case errors.As(err, &vErr):
		writeErrorField(w, http.StatusBadRequest, "Validation failed", vErr, vErr.Field)
	case errors.As(err, &fErr):
		writeError(w, http.StatusBadRequest, "Invalid "+fErr.Kind, fErr)
	case isUnknownScenario(err):
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
	case errors.As(err, &nfErr):
		writeError(w, http.StatusNotFound, strings.ToUpper(nfErr.Kind[:1])+nfErr.Kind[1:]+" not found", nfErr)
	default:
		h.Log.Error().Err(err).Str("route", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	writeErrorField(w, status, message, err, "")
}

func writeErrorField(w http.ResponseWriter, status int, message string, err error, field string) {
	resp := ErrorResponse{Error: message, Field: field}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
