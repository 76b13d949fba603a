package calendar

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDateFormat is returned when a date or month string is malformed.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrInvalidTimeFormat is returned when a time-of-day string is malformed.
	ErrInvalidTimeFormat = errors.New("invalid time format")
)

// FormatError reports the input that failed to parse.
type FormatError struct {
	Kind  string // "date", "month" or "time"
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	expected := "YYYY-MM-DD"
	switch e.Kind {
	case "month":
		expected = "YYYY-MM"
	case "time":
		expected = "HH:MM"
	}
	return fmt.Sprintf("invalid %s %q (use %s)", e.Kind, e.Input, expected)
}

func (e *FormatError) Unwrap() error {
	if e.Kind == "time" {
		return ErrInvalidTimeFormat
	}
	return ErrInvalidDateFormat
}
