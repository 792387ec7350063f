package wizard

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrWizardNotFound     = errors.New("wizard not found")
	ErrPackageNotFound    = errors.New("service package not found")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrConceptNotFound    = errors.New("concept not found in package")

	ErrWrongStep    = errors.New("operation not allowed at current step")
	ErrCannotGoBack = errors.New("cannot go back from current step")
	ErrStaleResult  = errors.New("wizard changed while the request was running")

	ErrConceptValidationFailed = errors.New("concept validation failed")
	ErrAvailabilityUnavailable = errors.New("availability unavailable")
	ErrSlotNotFound            = errors.New("slot not found")
	ErrCapacityExceeded        = errors.New("slot capacity exceeded")

	ErrSubmissionFailed   = errors.New("submission failed")
	ErrSubmissionInFlight = errors.New("submission already in progress")

	ErrValidation = errors.New("validation error")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "validation error: " + strings.Join(names, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
