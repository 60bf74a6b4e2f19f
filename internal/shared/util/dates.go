package util

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a value is neither RFC 3339 nor YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts an RFC 3339 timestamp or a calendar date. Calendar dates
// are interpreted at midnight in loc (UTC when nil). Empty input returns a
// zero time and no error.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, ErrInvalidDate
}

// ParseOptionalDate is ParseDate returning nil for empty input.
func ParseOptionalDate(value string, loc *time.Location) (*time.Time, error) {
	t, err := ParseDate(value, loc)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

// ParseDayEnd is ParseDate except that a calendar date maps to the last
// instant of that day in loc, so "end on the 3rd" still covers the 3rd.
// Timestamps are returned unchanged.
func ParseDayEnd(value string, loc *time.Location) (time.Time, error) {
	t, err := ParseDate(value, loc)
	if err != nil || t.IsZero() || len(strings.TrimSpace(value)) != len("2006-01-02") {
		return t, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).AddDate(0, 0, 1).Add(-time.Microsecond).UTC(), nil
}

// ParseOptionalDayEnd is ParseDayEnd returning nil for empty input.
func ParseOptionalDayEnd(value string, loc *time.Location) (*time.Time, error) {
	t, err := ParseDayEnd(value, loc)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}
