package wizard

import (
	"context"
	"time"

	"photogo/internal/domain"
	"photogo/internal/integrations/storefront"
	"photogo/internal/modules/availability"
	"photogo/internal/modules/voucher"
)

type Catalog interface {
	GetServicePackage(ctx context.Context, packageID string) (*domain.ServicePackage, error)
	ValidateConcept(ctx context.Context, conceptID, locationID string) error
}

type BookingSubmitter interface {
	CreateBooking(ctx context.Context, req storefront.CreateBookingRequest) (*storefront.CreateBookingResponse, error)
}

type Vouchers interface {
	ListForUser(ctx context.Context, userID int64, subtotal int64, now time.Time) ([]voucher.Candidate, error)
	FindByCode(ctx context.Context, userID int64, code string) (*domain.Voucher, error)
}

// SlotTracker is the per-wizard availability state, see availability.Tracker.
type SlotTracker interface {
	LoadDates(ctx context.Context) availability.DatesResult
	LoadSlots(ctx context.Context, date string) availability.SlotsResult
	Confirm(ctx context.Context, date, slotID string) availability.ConfirmResult
	Slot(date, slotID string) (domain.TimeSlot, bool)
	Calendar() *domain.AvailabilityCalendar
}

type TrackerFactory func(locationID string) SlotTracker

type Observer interface {
	ObserveTransition(from, to, result string)
	SetActiveWizards(n int)
}

type TimeProvider interface {
	Now() time.Time
}

type RealTimeProvider struct{}

func (RealTimeProvider) Now() time.Time { return time.Now() }

type noopObserver struct{}

func (noopObserver) ObserveTransition(string, string, string) {}
func (noopObserver) SetActiveWizards(int)                     {}
