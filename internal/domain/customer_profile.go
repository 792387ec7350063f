package domain

import "time"

// CustomerProfile remembers the last contact details a user entered,
// so the next wizard can be prefilled.
type CustomerProfile struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:255"`
	Email     string    `json:"email" gorm:"size:255"`
	Phone     string    `json:"phone" gorm:"size:32"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CustomerProfile) TableName() string { return "booking_customer_profiles" }

func (p CustomerProfile) Info() CustomerInfo {
	return CustomerInfo{Name: p.Name, Email: p.Email, Phone: p.Phone, Notes: p.Notes}
}
