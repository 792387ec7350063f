package domain

type DepositPercent int

const (
	Deposit30  DepositPercent = 30
	Deposit50  DepositPercent = 50
	Deposit70  DepositPercent = 70
	Deposit100 DepositPercent = 100

	DefaultDepositPercent = Deposit30
)

func (p DepositPercent) Valid() bool {
	switch p {
	case Deposit30, Deposit50, Deposit70, Deposit100:
		return true
	}
	return false
}

type BookingDateTime struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	SlotID string `json:"slotId"`
}

func (dt BookingDateTime) IsSet() bool {
	return dt.Date != "" && dt.Time != "" && dt.SlotID != ""
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

// BookingDraft is the in-progress booking a wizard builds up step by step.
type BookingDraft struct {
	LocationID     string          `json:"locationId"`
	Concept        *ServiceConcept `json:"concept"`
	AddOns         AddOns          `json:"addOns"`
	Voucher        *Voucher        `json:"voucher"`
	DateTime       BookingDateTime `json:"dateTime"`
	Customer       CustomerInfo    `json:"customer"`
	DepositPercent DepositPercent  `json:"depositPercent"`
}

func NewBookingDraft(locationID string, deposit DepositPercent) *BookingDraft {
	if !deposit.Valid() {
		deposit = DefaultDepositPercent
	}
	return &BookingDraft{LocationID: locationID, DepositPercent: deposit}
}

type CustomerPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Notes *string `json:"notes"`
}

// DraftPatch carries a partial update. Nil fields are left untouched and
// add-on flags merge one by one.
type DraftPatch struct {
	Concept        *ServiceConcept
	AddOns         map[AddOn]bool
	DateTime       *BookingDateTime
	Customer       *CustomerPatch
	DepositPercent *DepositPercent
}

func (d *BookingDraft) Apply(p DraftPatch) {
	if p.Concept != nil {
		c := *p.Concept
		d.Concept = &c
	}
	for a, on := range p.AddOns {
		d.AddOns = d.AddOns.With(a, on)
	}
	if p.DateTime != nil {
		d.DateTime = *p.DateTime
	}
	if cp := p.Customer; cp != nil {
		if cp.Name != nil {
			d.Customer.Name = *cp.Name
		}
		if cp.Email != nil {
			d.Customer.Email = *cp.Email
		}
		if cp.Phone != nil {
			d.Customer.Phone = *cp.Phone
		}
		if cp.Notes != nil {
			d.Customer.Notes = *cp.Notes
		}
	}
	if p.DepositPercent != nil {
		d.DepositPercent = *p.DepositPercent
	}
}

// Clone returns a deep copy.
func (d *BookingDraft) Clone() *BookingDraft {
	if d == nil {
		return nil
	}
	out := *d
	if d.Concept != nil {
		c := *d.Concept
		out.Concept = &c
	}
	if d.Voucher != nil {
		v := *d.Voucher
		out.Voucher = &v
	}
	return &out
}
