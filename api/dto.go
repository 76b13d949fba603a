/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Display values (names, formatted money) computed once on the server

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Users:     UserDTO, CreateUserRequest, UpdateWageRequest
  Events:    EventDTO, CreateEventRequest
  Calendar:  MonthViewDTO, DayDTO
  Selection: SelectionDTO, ClickRequest, ConfirmRequest, ConfirmResponse
  Payroll:   PayrollDTO, PayrollRowDTO
  Scenarios: ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request types carry go-playground/validator tags; decodeAndValidate in
  handlers.go runs them. Semantic checks (negative wage, start before end)
  stay in the engine so every caller gets them.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/calendar"
	"github.com/warp/shift-engine/engine"
	"github.com/warp/shift-engine/payroll"
	"github.com/warp/shift-engine/scenario"
)

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
	HourlyWage  string `json:"hourly_wage"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateUserRequest accepts hourly_wage as a JSON number or string.
type CreateUserRequest struct {
	FirstName  string           `json:"first_name" validate:"required"`
	LastName   string           `json:"last_name" validate:"required"`
	HourlyWage *decimal.Decimal `json:"hourly_wage" validate:"required"`
}

type UpdateWageRequest struct {
	HourlyWage *decimal.Decimal `json:"hourly_wage" validate:"required"`
}

func toUserDTO(u engine.User) UserDTO {
	dto := UserDTO{
		ID:          int64(u.ID),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName(),
		HourlyWage:  u.HourlyWage.StringFixed(2),
	}
	if !u.CreatedAt.IsZero() {
		dto.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// EVENTS
// =============================================================================

type EventDTO struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id"`
	UserName        string `json:"user_name"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	CreatedAt       string `json:"created_at,omitempty"`
}

type CreateEventRequest struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// names maps user ids to display names for event responses.
type names map[engine.UserID]string

func namesOf(users []engine.User) names {
	n := make(names, len(users))
	for _, u := range users {
		n[u.ID] = u.DisplayName()
	}
	return n
}

func toEventDTO(ev engine.CalendarEvent, n names) EventDTO {
	dto := EventDTO{
		ID:              int64(ev.ID),
		UserID:          int64(ev.UserID),
		UserName:        n[ev.UserID],
		Date:            calendar.FormatISODate(ev.Date),
		StartTime:       ev.Start.String(),
		EndTime:         ev.End.String(),
		DurationMinutes: ev.DurationMinutes(),
	}
	if !ev.CreatedAt.IsZero() {
		dto.CreatedAt = ev.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toEventDTOs(events []engine.CalendarEvent, n names) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, ev := range events {
		dtos[i] = toEventDTO(ev, n)
	}
	return dtos
}

// =============================================================================
// CALENDAR
// =============================================================================

// MonthViewDTO is the calendar grid of one month. LeadingBlanks is the
// number of empty cells before day 1 in a Sunday-first grid.
type MonthViewDTO struct {
	Month         string       `json:"month"`
	Year          int          `json:"year"`
	MonthNumber   int          `json:"month_number"`
	MonthName     string       `json:"month_name"`
	DaysInMonth   int          `json:"days_in_month"`
	LeadingBlanks int          `json:"leading_blanks"`
	Prev          string       `json:"prev"`
	Next          string       `json:"next"`
	Days          []DayDTO     `json:"days"`
	Selection     SelectionDTO `json:"selection"`
}

type DayDTO struct {
	Date    string     `json:"date"`
	Day     int        `json:"day"`
	Weekday string     `json:"weekday"`
	InRange bool       `json:"in_range"`
	Events  []EventDTO `json:"events"`
}

// =============================================================================
// RANGE SELECTION
// =============================================================================

type SelectionDTO struct {
	State        string `json:"state"` // "idle" or "anchor_set"
	Anchor       string `json:"anchor,omitempty"`
	Start        string `json:"start,omitempty"`
	End          string `json:"end,omitempty"`
	DaysSelected int    `json:"days_selected"`
}

type ClickRequest struct {
	Date string `json:"date" validate:"required"`
}

type ConfirmRequest struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

type ConfirmResponse struct {
	Created   []EventDTO   `json:"created"`
	Count     int          `json:"count"`
	Selection SelectionDTO `json:"selection"`
}

func toSelectionDTO(st engine.SelectionState) SelectionDTO {
	as, ok := st.(engine.AnchorSet)
	if !ok {
		return SelectionDTO{State: "idle"}
	}
	return SelectionDTO{
		State:        "anchor_set",
		Anchor:       calendar.FormatISODate(as.Anchor),
		Start:        calendar.FormatISODate(as.Pending.Start),
		End:          calendar.FormatISODate(as.Pending.End),
		DaysSelected: as.Pending.Len(),
	}
}

// =============================================================================
// PAYROLL
// =============================================================================

type PayrollRowDTO struct {
	UserID         int64  `json:"user_id,omitempty"`
	Name           string `json:"name"`
	Shifts         int    `json:"shifts"`
	ScheduledHours string `json:"scheduled_hours"`
	PaidHours      string `json:"paid_hours"`
	Income         string `json:"income"`
}

type PayrollDTO struct {
	Month        string          `json:"month"`
	BreakMinutes int             `json:"break_minutes"`
	Rows         []PayrollRowDTO `json:"rows"`
	Totals       PayrollRowDTO   `json:"totals"`
}

func toPayrollRowDTO(r payroll.Row) PayrollRowDTO {
	f := r.Format()
	return PayrollRowDTO{
		UserID:         int64(r.UserID),
		Name:           f.Name,
		Shifts:         r.Shifts,
		ScheduledHours: f.ScheduledHours,
		PaidHours:      f.PaidHours,
		Income:         f.Income,
	}
}

func toPayrollDTO(rep payroll.Report, breakMinutes int) PayrollDTO {
	rows := make([]PayrollRowDTO, len(rep.Rows))
	for i, r := range rep.Rows {
		rows[i] = toPayrollRowDTO(r)
	}
	return PayrollDTO{
		Month:        rep.Month.String(),
		BreakMinutes: breakMinutes,
		Rows:         rows,
		Totals:       toPayrollRowDTO(rep.Totals),
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Users       int    `json:"users"`
	Shifts      int    `json:"shifts"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

func toScenarioDTO(s *scenario.Scenario) ScenarioDTO {
	return ScenarioDTO{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Category:    s.Category,
		Users:       s.Users(),
		Shifts:      s.Shifts(),
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}
