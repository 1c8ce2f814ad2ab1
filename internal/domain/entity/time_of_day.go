package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "mealreminder/internal/pkg/errors"
)

// TimeOfDay is a timezone-naive wall-clock time. It means "every day at
// Hour:Minute", not an instant.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NewTimeOfDay validates and builds a TimeOfDay.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	t := TimeOfDay{Hour: hour, Minute: minute}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("%w: time %d:%d is out of range", appErrors.ErrValidation, hour, minute)
	}
	return t, nil
}

// ParseTimeOfDay parses "H:MM" or "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(ms) != 2 || hs == "" || len(hs) > 2 {
		return TimeOfDay{}, fmt.Errorf("%w: time %q must be HH:MM", appErrors.ErrValidation, s)
	}
	if !isDigits(hs) || !isDigits(ms) {
		return TimeOfDay{}, fmt.Errorf("%w: time %q must contain only digits", appErrors.ErrValidation, s)
	}
	hour, err := strconv.Atoi(hs)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: time %q has a non-numeric hour", appErrors.ErrValidation, s)
	}
	minute, err := strconv.Atoi(ms)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: time %q has a non-numeric minute", appErrors.ErrValidation, s)
	}
	return NewTimeOfDay(hour, minute)
}

// isDigits rejects the signs strconv.Atoi would otherwise accept.
func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Valid reports whether the hour/minute pair is a real wall-clock time.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Compare orders by minutes since midnight.
func (t TimeOfDay) Compare(o TimeOfDay) int {
	a, b := t.Hour*60+t.Minute, o.Hour*60+o.Minute
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// storageDay is the UTC calendar day every stored time of day is written on.
// UTC has no DST, so every wall-clock time exists on it exactly once.
var storageDay = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeOfDayFromTimestamp reads back a time written by Timestamp. The store
// may hand the instant back in any zone.
func TimeOfDayFromTimestamp(ts time.Time) TimeOfDay {
	u := ts.UTC()
	return TimeOfDay{Hour: u.Hour(), Minute: u.Minute()}
}

// Timestamp encodes t as an instant for the store, which only understands
// instants: the wall-clock time on storageDay in UTC.
func (t TimeOfDay) Timestamp() time.Time {
	return storageDay.Add(time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
