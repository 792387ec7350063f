package storefront

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexibleID accepts both numeric and string identifiers.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

func (id FlexibleID) String() string { return string(id) }

type ServiceConcept struct {
	ID           FlexibleID      `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Duration     int             `json:"duration"`
	RangeType    string          `json:"rangeType"`
	NumberOfDays int             `json:"numberOfDays"`
}

type ServicePackage struct {
	ID              FlexibleID       `json:"id"`
	Name            string           `json:"name"`
	Price           decimal.Decimal  `json:"price"`
	Images          []string         `json:"images"`
	LocationID      FlexibleID       `json:"locationId"`
	ServiceConcepts []ServiceConcept `json:"serviceConcepts"`
}

type WorkingDate struct {
	Date        string `json:"date"`
	IsAvailable bool   `json:"isAvailable"`
}

type Availability struct {
	WorkingDates []WorkingDate `json:"workingDates"`
	StartTime    string        `json:"startTime"`
	EndTime      string        `json:"endTime"`
}

type Slot struct {
	ID                  FlexibleID `json:"id"`
	StartSlotTime       string     `json:"startSlotTime"`
	EndSlotTime         string     `json:"endSlotTime"`
	MaxParallelBookings int        `json:"maxParallelBookings"`
	AlreadyBooked       int        `json:"alreadyBooked"`
	IsAvailable         bool       `json:"isAvailable"`
}

type DaySlots struct {
	SlotTimeWorkingDates []Slot `json:"slotTimeWorkingDates"`
}

type Voucher struct {
	Code          string           `json:"code"`
	Description   string           `json:"description"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinPrice      *decimal.Decimal `json:"min_price"`
	MaxPrice      *decimal.Decimal `json:"max_price"`
	StartDate     string           `json:"start_date"`
	EndDate       string           `json:"end_date"`
	Status        string           `json:"status"`
}

type UserVoucher struct {
	VoucherID FlexibleID `json:"voucher_id"`
	Voucher   Voucher    `json:"voucher"`
}

type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type VoucherPage struct {
	Data []UserVoucher `json:"data"`
	Meta PageMeta      `json:"meta"`
}

type BookingAddOns struct {
	Premium   bool `json:"premium"`
	Album     bool `json:"album"`
	ExtraHour bool `json:"extraHour"`
}

type BookingCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes,omitempty"`
}

// CreateBookingRequest is the body of POST /booking/create. Date is DD/MM/YYYY.
type CreateBookingRequest struct {
	ServiceConceptID string          `json:"serviceConceptId"`
	LocationID       string          `json:"locationId"`
	Date             string          `json:"date"`
	Time             string          `json:"time"`
	SlotID           string          `json:"slotId"`
	AddOns           BookingAddOns   `json:"addOns"`
	Customer         BookingCustomer `json:"customer"`
	DepositPercent   int             `json:"depositPercent"`
	Subtotal         int64           `json:"subtotal"`
	Discount         int64           `json:"discount"`
	TotalAmount      int64           `json:"totalAmount"`
	DepositAmount    int64           `json:"depositAmount"`
	VoucherCode      string          `json:"voucherCode,omitempty"`
	IdempotencyKey   string          `json:"idempotencyKey"`
}

type CreateBookingResponse struct {
	PaymentLink string `json:"paymentLink"`
}

type errorBody struct {
	Message string `json:"message"`
}
