package voucher

import (
	"errors"
	"fmt"
)

var (
	ErrNotApplicable = errors.New("voucher: not applicable")
	ErrNotFound      = errors.New("voucher: not found")
	ErrListFailed    = errors.New("voucher: could not load vouchers")
)

type Reason string

const (
	ReasonMissing       Reason = "missing"
	ReasonInactive      Reason = "inactive"
	ReasonNotStarted    Reason = "not_started"
	ReasonExpired       Reason = "expired"
	ReasonBelowMinPrice Reason = "below_min_price"
	ReasonAboveMaxPrice Reason = "above_max_price"
)

// NotApplicableError says which voucher was refused and why.
type NotApplicableError struct {
	Code   string
	Reason Reason
}

func (e *NotApplicableError) Error() string {
	return fmt.Sprintf("voucher %q not applicable: %s", e.Code, e.Reason)
}

func (e *NotApplicableError) Is(target error) bool { return target == ErrNotApplicable }
