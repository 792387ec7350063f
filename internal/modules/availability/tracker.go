package availability

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"photogo/internal/domain"
	"photogo/internal/pkg/datefmt"
)

type DatesResult struct {
	Calendar   *domain.AvailabilityCalendar `json:"calendar"`
	Failed     bool                         `json:"failed"`
	Error      string                       `json:"error,omitempty"`
	Superseded bool                         `json:"superseded,omitempty"`
}

type SlotsResult struct {
	Date       string            `json:"date"`
	Slots      []domain.TimeSlot `json:"slots"`
	Failed     bool              `json:"failed"`
	Error      string            `json:"error,omitempty"`
	Superseded bool              `json:"superseded,omitempty"`
}

// ConfirmResult is the outcome of re-reading one slot straight from upstream.
type ConfirmResult struct {
	Slot   domain.TimeSlot
	Found  bool
	Failed bool
	Error  string
}

// Tracker keeps the availability a single wizard has seen. Fetch errors are
// folded into the result flags and the previously resolved data is kept.
// Only the most recently issued slot request may change state.
type Tracker struct {
	fetcher Fetcher
	log     *zap.Logger

	mu         sync.Mutex
	locationID string
	calendar   *domain.AvailabilityCalendar
	slots      map[string][]domain.TimeSlot
	datesGen   uint64
	slotsGen   uint64
	cancel     context.CancelFunc
}

func NewTracker(fetcher Fetcher, locationID string, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		fetcher:    fetcher,
		log:        log,
		locationID: locationID,
		slots:      map[string][]domain.TimeSlot{},
	}
}

func (t *Tracker) LocationID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.locationID
}

// SetLocation switches location and forgets everything resolved for the old one.
func (t *Tracker) SetLocation(locationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if locationID == t.locationID {
		return
	}
	t.locationID = locationID
	t.calendar = nil
	t.slots = map[string][]domain.TimeSlot{}
	t.datesGen++
	t.slotsGen++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Tracker) Calendar() *domain.AvailabilityCalendar {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calendar
}

// Slot looks up an already resolved slot.
func (t *Tracker) Slot(date, slotID string) (domain.TimeSlot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.slots[date] {
		if s.ID == slotID {
			return s, true
		}
	}
	return domain.TimeSlot{}, false
}

func (t *Tracker) LoadDates(ctx context.Context) DatesResult {
	t.mu.Lock()
	t.datesGen++
	gen := t.datesGen
	loc := t.locationID
	t.mu.Unlock()

	cal, err := t.fetcher.FetchDates(ctx, loc)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.datesGen {
		return DatesResult{Calendar: t.calendar, Superseded: true}
	}
	if err != nil {
		t.log.Warn("availability.load_dates failed", zap.String("location_id", loc), zap.Error(err))
		return DatesResult{Calendar: t.calendar, Failed: true, Error: userMessage(err)}
	}
	t.calendar = cal
	return DatesResult{Calendar: cal}
}

// LoadSlots fetches the slots of date and cancels whatever slot request was
// still in flight. A response that lost the race comes back with Superseded set.
func (t *Tracker) LoadSlots(ctx context.Context, date string) SlotsResult {
	return t.loadSlots(ctx, date, true)
}

// Confirm re-reads date from upstream and reports the current state of slotID.
// A later LoadSlots does not cancel it.
func (t *Tracker) Confirm(ctx context.Context, date, slotID string) ConfirmResult {
	res := t.loadSlots(ctx, date, false)
	if res.Failed {
		return ConfirmResult{Failed: true, Error: res.Error}
	}
	for _, s := range res.Slots {
		if s.ID == slotID {
			return ConfirmResult{Slot: s, Found: true}
		}
	}
	return ConfirmResult{}
}

func (t *Tracker) loadSlots(ctx context.Context, date string, cancellable bool) SlotsResult {
	t.mu.Lock()
	t.slotsGen++
	gen := t.slotsGen
	loc := t.locationID
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	if cancellable {
		t.cancel = cancel
	}
	t.mu.Unlock()
	defer cancel()

	slots, err := t.fetcher.FetchSlots(fetchCtx, loc, date)

	t.mu.Lock()
	defer t.mu.Unlock()
	current := gen == t.slotsGen
	if current && cancellable {
		t.cancel = nil
	}

	if !current && cancellable {
		return SlotsResult{Date: date, Slots: cloneSlots(t.slots[date]), Superseded: true}
	}
	if err != nil {
		t.log.Warn("availability.load_slots failed",
			zap.String("location_id", loc), zap.String("date", date), zap.Error(err))
		return SlotsResult{Date: date, Slots: cloneSlots(t.slots[date]), Failed: true, Error: userMessage(err)}
	}
	if !current {
		// a newer request owns the cache, the caller still gets what it asked for
		return SlotsResult{Date: date, Slots: slots}
	}

	t.slots[date] = slots
	return SlotsResult{Date: date, Slots: cloneSlots(slots)}
}

func cloneSlots(in []domain.TimeSlot) []domain.TimeSlot {
	out := make([]domain.TimeSlot, len(in))
	copy(out, in)
	return out
}

func userMessage(err error) string {
	var pe *datefmt.ParseError
	switch {
	case errors.As(err, &pe):
		return "availability data could not be read"
	case errors.Is(err, ErrInvalidLocation):
		return "location is not set"
	case errors.Is(err, ErrInvalidDate):
		return "date is invalid"
	default:
		return "availability is temporarily unavailable"
	}
}
