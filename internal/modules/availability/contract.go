package availability

import (
	"context"

	"photogo/internal/domain"
	"photogo/internal/integrations/storefront"
)

// Source is the upstream availability feed.
type Source interface {
	GetAvailability(ctx context.Context, locationID string) (*storefront.Availability, error)
	GetSlots(ctx context.Context, locationID, externalDate string) (*storefront.DaySlots, error)
}

// Fetcher is what a Tracker needs from the resolver.
type Fetcher interface {
	FetchDates(ctx context.Context, locationID string) (*domain.AvailabilityCalendar, error)
	FetchSlots(ctx context.Context, locationID, date string) ([]domain.TimeSlot, error)
}
