package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"photogo/internal/domain"
	"photogo/internal/integrations/storefront"
	"photogo/internal/pkg/datefmt"
)

// Resolver turns the storefront availability feed into domain values.
// It holds no state; every call goes upstream.
type Resolver struct {
	source Source
	log    *zap.Logger
}

func NewResolver(source Source, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{source: source, log: log}
}

// FetchDates returns the working calendar of a location. An unknown location
// yields an empty calendar.
func (r *Resolver) FetchDates(ctx context.Context, locationID string) (*domain.AvailabilityCalendar, error) {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return nil, ErrInvalidLocation
	}

	cal := domain.NewAvailabilityCalendar(locationID)

	resp, err := r.source.GetAvailability(ctx, locationID)
	if err != nil {
		if errors.Is(err, storefront.ErrNotFound) {
			r.log.Debug("availability.fetch_dates: location not found", zap.String("location_id", locationID))
			return cal, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	for _, wd := range resp.WorkingDates {
		date, err := datefmt.ExternalToInternal(wd.Date)
		if err != nil {
			return nil, err
		}
		// a date listed twice is open if any entry says so
		cal.WorkingDates[date] = cal.WorkingDates[date] || wd.IsAvailable
	}
	cal.StartTime = normalizeOptionalClock(resp.StartTime)
	cal.EndTime = normalizeOptionalClock(resp.EndTime)

	return cal, nil
}

// FetchSlots returns the slots of one day (YYYY-MM-DD), sorted by start time,
// with capacity numbers clamped so that 0 <= AlreadyBooked <= MaxParallelBookings.
func (r *Resolver) FetchSlots(ctx context.Context, locationID, date string) ([]domain.TimeSlot, error) {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return nil, ErrInvalidLocation
	}
	external, err := datefmt.InternalToExternal(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}

	resp, err := r.source.GetSlots(ctx, locationID, external)
	if err != nil {
		if errors.Is(err, storefront.ErrNotFound) {
			return []domain.TimeSlot{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	slots := make([]domain.TimeSlot, 0, len(resp.SlotTimeWorkingDates))
	for _, s := range resp.SlotTimeWorkingDates {
		slot, err := normalizeSlot(date, s)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].StartTime == slots[j].StartTime {
			return slots[i].ID < slots[j].ID
		}
		return slots[i].StartTime < slots[j].StartTime
	})
	return slots, nil
}

func normalizeSlot(date string, s storefront.Slot) (domain.TimeSlot, error) {
	start, err := datefmt.NormalizeClock(s.StartSlotTime)
	if err != nil {
		return domain.TimeSlot{}, err
	}
	end, err := datefmt.NormalizeClock(s.EndSlotTime)
	if err != nil {
		return domain.TimeSlot{}, err
	}

	maxParallel := s.MaxParallelBookings
	if maxParallel < 0 {
		maxParallel = 0
	}
	booked := s.AlreadyBooked
	if booked < 0 {
		booked = 0
	}
	if booked > maxParallel {
		booked = maxParallel
	}

	return domain.TimeSlot{
		ID:                  s.ID.String(),
		Date:                date,
		StartTime:           start,
		EndTime:             end,
		MaxParallelBookings: maxParallel,
		AlreadyBooked:       booked,
		IsAvailable:         s.IsAvailable && booked < maxParallel,
	}, nil
}

func normalizeOptionalClock(s string) string {
	if s == "" {
		return ""
	}
	if v, err := datefmt.NormalizeClock(s); err == nil {
		return v
	}
	return s
}
