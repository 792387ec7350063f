// Package datefmt converts between the storefront date format (DD/MM/YYYY)
// and the ISO form (YYYY-MM-DD) used everywhere inside the service.
package datefmt

import (
	"fmt"
	"time"
)

const (
	InternalLayout = "2006-01-02"
	ExternalLayout = "02/01/2006"
	ClockLayout    = "15:04"

	clockWithSeconds = "15:04:05"
)

// ParseError is returned when a date or clock string is not in the expected layout.
type ParseError struct {
	Value  string
	Layout string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("datefmt: cannot parse %q as %s: %v", e.Value, e.Layout, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExternalToInternal converts "DD/MM/YYYY" into "YYYY-MM-DD".
func ExternalToInternal(s string) (string, error) {
	t, err := time.Parse(ExternalLayout, s)
	if err != nil {
		return "", &ParseError{Value: s, Layout: "DD/MM/YYYY", Err: err}
	}
	return t.Format(InternalLayout), nil
}

// InternalToExternal converts "YYYY-MM-DD" into "DD/MM/YYYY".
func InternalToExternal(s string) (string, error) {
	t, err := ParseInternal(s)
	if err != nil {
		return "", err
	}
	return t.Format(ExternalLayout), nil
}

func ParseInternal(s string) (time.Time, error) {
	t, err := time.Parse(InternalLayout, s)
	if err != nil {
		return time.Time{}, &ParseError{Value: s, Layout: "YYYY-MM-DD", Err: err}
	}
	return t, nil
}

// NormalizeClock accepts "HH:MM" or "HH:MM:SS" and returns "HH:MM".
func NormalizeClock(s string) (string, error) {
	for _, layout := range []string{ClockLayout, clockWithSeconds} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ClockLayout), nil
		}
	}
	return "", &ParseError{Value: s, Layout: "HH:MM", Err: fmt.Errorf("unrecognised clock value")}
}
