package domain

import (
	"errors"
	"strings"
	"time"
)

// DayLayout is the format of a calendar-day key.
const DayLayout = "2006-01-02"

// ErrInvalidDay is returned when a date cannot be parsed.
var ErrInvalidDay = errors.New("date must be YYYY-MM-DD or RFC 3339")

// ParseDay normalizes a client supplied date to a calendar-day key.
// Instants are reduced to their UTC day so a record written at 23:10Z and
// a lookup for the bare date agree.
func ParseDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidDay
	}
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t.Format(DayLayout), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return "", ErrInvalidDay
	}
	return t.UTC().Format(DayLayout), nil
}

// DayOfWeek returns the 1=Sunday..7=Saturday number of a day key.
func DayOfWeek(day string) (int, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return 0, ErrInvalidDay
	}
	return int(t.Weekday()) + 1, nil
}
