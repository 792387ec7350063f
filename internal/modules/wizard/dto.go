package wizard

import (
	"photogo/internal/domain"
	"photogo/internal/modules/pricing"
)

type StartRequest struct {
	PackageID  string `json:"packageId" binding:"required"`
	LocationID string `json:"locationId"`
	ConceptID  string `json:"conceptId"`
}

type SelectConceptRequest struct {
	ConceptID string `json:"conceptId" binding:"required"`
}

type SelectSlotRequest struct {
	Date   string `json:"date" binding:"required"`
	SlotID string `json:"slotId" binding:"required"`
}

type DepositRequest struct {
	DepositPercent int `json:"depositPercent" binding:"required"`
}

type VoucherRequest struct {
	Code string `json:"code" binding:"required"`
}

// AddOnsRequest toggles individual add-ons; absent keys are left alone.
type AddOnsRequest map[domain.AddOn]bool

type SubmitResult struct {
	PaymentLink string            `json:"paymentLink"`
	Pricing     pricing.Breakdown `json:"pricing"`
}

type customerForm struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,phone"`
}
