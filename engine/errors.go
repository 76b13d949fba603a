/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every failed engine operation returns one of these and leaves the
  stores unchanged.

ERROR CATEGORIES:
  1. Validation errors - malformed input (empty name, negative wage,
     inverted shift, nothing selected)
  2. Not-found errors  - references to a missing user or event
  3. Format errors     - calendar.ErrInvalidDateFormat from date parsing

USAGE:
  if errors.Is(err, engine.ErrNotFound) {
      // 404
  }
  var vErr *engine.ValidationError
  if errors.As(err, &vErr) {
      fmt.Println(vErr.Field)
  }

SEE ALSO:
  - calendar/errors.go: Date and time parse failures
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/warp/shift-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when input violates a field rule.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced user or event doesn't exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError identifies the missing record.
type NotFoundError struct {
	Kind string // "user" or "event"
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func userNotFound(id UserID) *NotFoundError {
	return &NotFoundError{Kind: "user", ID: int64(id)}
}

func eventNotFound(id EventID) *NotFoundError {
	return &NotFoundError{Kind: "event", ID: int64(id)}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, calendar.ErrInvalidDateFormat) ||
		errors.Is(err, calendar.ErrInvalidTimeFormat)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ErrorKind maps an error to a stable label for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, calendar.ErrInvalidDateFormat), errors.Is(err, calendar.ErrInvalidTimeFormat):
		return "invalid_date"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "unexpected"
	}
}
