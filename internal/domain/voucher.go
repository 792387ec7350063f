package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type VoucherStatus string

const (
	VoucherActive   VoucherStatus = "active"
	VoucherInactive VoucherStatus = "inactive"
)

type Voucher struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Description   string          `json:"description,omitempty"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MinPrice      *int64          `json:"minPrice,omitempty"`
	MaxPrice      *int64          `json:"maxPrice,omitempty"`
	ValidFrom     *time.Time      `json:"validFrom,omitempty"`
	ValidTo       *time.Time      `json:"validTo,omitempty"`
	Status        VoucherStatus   `json:"status"`
}
