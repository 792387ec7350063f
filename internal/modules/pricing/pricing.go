// Package pricing derives the money figures of a booking draft.
// Every figure is recomputed from the draft; nothing here is cached.
package pricing

import (
	"github.com/shopspring/decimal"

	"photogo/internal/domain"
)

var hundred = decimal.NewFromInt(100)

type Breakdown struct {
	Subtotal        int64 `json:"subtotal"`
	Discount        int64 `json:"discount"`
	FinalAmount     int64 `json:"finalAmount"`
	DepositAmount   int64 `json:"depositAmount"`
	RemainingAmount int64 `json:"remainingAmount"`
}

// RoundHalfUp rounds to the nearest whole VND, halves away from zero.
// It is the only rounding used by the engine.
func RoundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// Subtotal is the concept price plus active add-ons. Without a concept it is zero.
func Subtotal(d *domain.BookingDraft) int64 {
	if d == nil || d.Concept == nil {
		return 0
	}
	total := d.Concept.Price
	for _, a := range d.AddOns.Active() {
		total += a.Price()
	}
	if total < 0 {
		return 0
	}
	return total
}

// Discount clamps the voucher reduction to [0, subtotal].
func Discount(v *domain.Voucher, subtotal int64) int64 {
	if v == nil || subtotal <= 0 {
		return 0
	}

	var raw int64
	switch v.DiscountType {
	case domain.DiscountPercentage:
		raw = RoundHalfUp(decimal.NewFromInt(subtotal).Mul(v.DiscountValue).Div(hundred))
	case domain.DiscountFixed:
		raw = RoundHalfUp(v.DiscountValue)
	default:
		return 0
	}

	if raw < 0 {
		return 0
	}
	if raw > subtotal {
		return subtotal
	}
	return raw
}

func Deposit(final int64, percent domain.DepositPercent) int64 {
	if final <= 0 {
		return 0
	}
	return RoundHalfUp(decimal.NewFromInt(final).Mul(decimal.NewFromInt(int64(percent))).Div(hundred))
}

// Compute returns the full breakdown. Remaining is final minus deposit so the
// two always add up exactly.
func Compute(d *domain.BookingDraft) Breakdown {
	subtotal := Subtotal(d)
	if subtotal == 0 {
		return Breakdown{}
	}

	discount := Discount(d.Voucher, subtotal)
	final := subtotal - discount
	deposit := Deposit(final, d.DepositPercent)

	return Breakdown{
		Subtotal:        subtotal,
		Discount:        discount,
		FinalAmount:     final,
		DepositAmount:   deposit,
		RemainingAmount: final - deposit,
	}
}
