// Package expiry classifies certificate expiry dates.
package expiry

import (
	"fmt"
	"strings"
	"time"
)

// LookaheadDays is the width of the expiring-soon window.
const LookaheadDays = 90

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Status is the derived state of a record.
type Status string

const (
	StatusCurrent      Status = "current"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
)

// DateOf returns the calendar date of t, in t's own location, as midnight UTC.
func DateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Classify derives the status of an expiry date relative to now.
// A nil expiry never expires. The window [today, today+90] is inclusive.
func Classify(expiry *time.Time, now time.Time) Status {
	if expiry == nil {
		return StatusCurrent
	}

	today := DateOf(now)
	date := DateOf(*expiry)

	if date.Before(today) {
		return StatusExpired
	}
	if !date.After(today.AddDate(0, 0, LookaheadDays)) {
		return StatusExpiringSoon
	}
	return StatusCurrent
}

// DeriveExpiry computes the frozen expiry for a completion of a course with
// the given validity. A nil validity means the record never expires.
func DeriveExpiry(completion time.Time, validityDays *int) *time.Time {
	if validityDays == nil {
		return nil
	}
	expiry := DateOf(completion).AddDate(0, 0, *validityDays)
	return &expiry
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return parsed, nil
}

// ParseOptionalDate parses a date, returning nil for blank input.
func ParseOptionalDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// FormatDate renders a date as YYYY-MM-DD, or "" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return DateOf(*t).Format(DateLayout)
}
