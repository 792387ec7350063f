package domain

import "sort"

// AvailabilityCalendar lists the working dates of a location, keyed by YYYY-MM-DD.
type AvailabilityCalendar struct {
	LocationID   string          `json:"locationId"`
	WorkingDates map[string]bool `json:"workingDates"`
	StartTime    string          `json:"startTime"`
	EndTime      string          `json:"endTime"`
}

func NewAvailabilityCalendar(locationID string) *AvailabilityCalendar {
	return &AvailabilityCalendar{LocationID: locationID, WorkingDates: map[string]bool{}}
}

func (c *AvailabilityCalendar) IsAvailable(date string) bool {
	if c == nil {
		return false
	}
	return c.WorkingDates[date]
}

// AvailableDates returns the open dates in ascending order.
func (c *AvailabilityCalendar) AvailableDates() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.WorkingDates))
	for d, ok := range c.WorkingDates {
		if ok {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

type TimeSlot struct {
	ID                  string `json:"id"`
	Date                string `json:"date"`
	StartTime           string `json:"startTime"`
	EndTime             string `json:"endTime"`
	MaxParallelBookings int    `json:"maxParallelBookings"`
	AlreadyBooked       int    `json:"alreadyBooked"`
	IsAvailable         bool   `json:"isAvailable"`
}

// Residual is the number of bookings the slot can still take.
func (s TimeSlot) Residual() int {
	r := s.MaxParallelBookings - s.AlreadyBooked
	if r < 0 {
		return 0
	}
	return r
}

func (s TimeSlot) Selectable() bool {
	return s.IsAvailable && s.AlreadyBooked < s.MaxParallelBookings
}
