// Package voucher decides whether a voucher may discount a draft and
// attaches or detaches it.
package voucher

import (
	"time"

	"photogo/internal/domain"
	"photogo/internal/modules/pricing"
)

// Check returns nil when v may be applied to subtotal at now, otherwise a
// *NotApplicableError. Validity bounds are inclusive.
func Check(v *domain.Voucher, subtotal int64, now time.Time) error {
	if v == nil {
		return &NotApplicableError{Reason: ReasonMissing}
	}
	fail := func(r Reason) error { return &NotApplicableError{Code: v.Code, Reason: r} }

	if v.Status != domain.VoucherActive {
		return fail(ReasonInactive)
	}
	if v.ValidFrom != nil && now.Before(*v.ValidFrom) {
		return fail(ReasonNotStarted)
	}
	if v.ValidTo != nil && now.After(*v.ValidTo) {
		return fail(ReasonExpired)
	}
	if v.MinPrice != nil && subtotal < *v.MinPrice {
		return fail(ReasonBelowMinPrice)
	}
	if v.MaxPrice != nil && subtotal > *v.MaxPrice {
		return fail(ReasonAboveMaxPrice)
	}
	return nil
}

func IsApplicable(v *domain.Voucher, subtotal int64, now time.Time) bool {
	return Check(v, subtotal, now) == nil
}

// Select attaches a copy of v to the draft. The draft is left untouched when
// the voucher does not apply to its current subtotal.
func Select(d *domain.BookingDraft, v *domain.Voucher, now time.Time) error {
	if err := Check(v, pricing.Subtotal(d), now); err != nil {
		return err
	}
	cp := *v
	d.Voucher = &cp
	return nil
}

func Remove(d *domain.BookingDraft) {
	d.Voucher = nil
}
