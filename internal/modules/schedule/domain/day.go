package domain

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// DayKey identifies a local calendar day as YYYY-MM-DD.
type DayKey string

func DayKeyOf(t time.Time) DayKey {
	return DayKey(t.Format(dayLayout))
}

func ParseDayKey(s string) (DayKey, error) {
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", fmt.Errorf("invalid day %q: want YYYY-MM-DD", s)
	}
	return DayKey(s), nil
}

// Start returns local midnight of the day in loc.
func (d DayKey) Start(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, string(d), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", d, err)
	}
	return t, nil
}

func (d DayKey) String() string { return string(d) }

// DaysBetween counts calendar days from one key to another. Both keys are
// compared as UTC dates so DST shifts never produce a partial day.
func DaysBetween(from, to DayKey) (int, error) {
	a, err := time.Parse(dayLayout, string(from))
	if err != nil {
		return 0, fmt.Errorf("invalid day %q", from)
	}
	b, err := time.Parse(dayLayout, string(to))
	if err != nil {
		return 0, fmt.Errorf("invalid day %q", to)
	}
	return int(b.Sub(a).Hours() / 24), nil
}
