package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"photogo/internal/domain"
	"photogo/internal/integrations/storefront"
	"photogo/internal/modules/voucher"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetServicePackage(ctx context.Context, packageID string) (*domain.ServicePackage, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServicePackage), args.Error(1)
}

func (m *MockCatalog) ValidateConcept(ctx context.Context, conceptID, locationID string) error {
	args := m.Called(ctx, conceptID, locationID)
	return args.Error(0)
}

type MockBookings struct {
	mock.Mock
}

func (m *MockBookings) CreateBooking(ctx context.Context, req storefront.CreateBookingRequest) (*storefront.CreateBookingResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storefront.CreateBookingResponse), args.Error(1)
}

type MockVouchers struct {
	mock.Mock
}

func (m *MockVouchers) ListForUser(ctx context.Context, userID int64, subtotal int64, now time.Time) ([]voucher.Candidate, error) {
	args := m.Called(ctx, userID, subtotal, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]voucher.Candidate), args.Error(1)
}

func (m *MockVouchers) FindByCode(ctx context.Context, userID int64, code string) (*domain.Voucher, error) {
	args := m.Called(ctx, userID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voucher), args.Error(1)
}

type MockCustomers struct {
	mock.Mock
}

func (m *MockCustomers) Get(ctx context.Context, userID int64) (*domain.CustomerInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustomerInfo), args.Error(1)
}

func (m *MockCustomers) Save(ctx context.Context, userID int64, info domain.CustomerInfo) error {
	args := m.Called(ctx, userID, info)
	return args.Error(0)
}

// stubFetcher serves availability from memory.
type stubFetcher struct {
	mu    sync.Mutex
	slots map[string][]domain.TimeSlot
	cal   *domain.AvailabilityCalendar
	err   error
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{slots: map[string][]domain.TimeSlot{}}
}

func (f *stubFetcher) FetchDates(_ context.Context, locationID string) (*domain.AvailabilityCalendar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.cal == nil {
		return domain.NewAvailabilityCalendar(locationID), nil
	}
	return f.cal, nil
}

func (f *stubFetcher) FetchSlots(_ context.Context, _ string, date string) ([]domain.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.TimeSlot, len(f.slots[date]))
	copy(out, f.slots[date])
	return out, nil
}

func (f *stubFetcher) set(date string, slots ...domain.TimeSlot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range slots {
		slots[i].Date = date
	}
	f.slots[date] = slots
}

func (f *stubFetcher) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
