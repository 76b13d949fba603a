package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// TIME OF DAY - Shift boundaries
// =============================================================================

// TimeOfDay is a local wall-clock time in minutes after midnight (0..1439).
type TimeOfDay int

const minutesPerDay = 24 * 60

// NewTimeOfDay builds a time from hour and minute, rejecting out of range values.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, &FormatError{Kind: "time", Input: fmt.Sprintf("%02d:%02d", hour, minute)}
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustTimeOfDay parses s and panics on error. Intended for tests and constants.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay accepts "HH:MM" and the "HH:MM:SS" form some time
// inputs submit; seconds must be zero.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, &FormatError{Kind: "time", Input: s}
	}
	for _, p := range parts {
		if len(p) != 2 {
			return 0, &FormatError{Kind: "time", Input: s}
		}
	}
	hour, errH := strconv.Atoi(parts[0])
	minute, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil {
		return 0, &FormatError{Kind: "time", Input: s}
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, &FormatError{Kind: "time", Input: s}
	}
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		return 0, &FormatError{Kind: "time", Input: s}
	}
	return t, nil
}

func (t TimeOfDay) Hour() int    { return int(t) / 60 }
func (t TimeOfDay) Minute() int  { return int(t) % 60 }
func (t TimeOfDay) Minutes() int { return int(t) }

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t < minutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText encodes the time as HH:MM.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes an HH:MM time.
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
