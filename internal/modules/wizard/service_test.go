package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"photogo/internal/domain"
	"photogo/internal/integrations/storefront"
	"photogo/internal/modules/availability"
	"photogo/internal/modules/pricing"
	"photogo/internal/modules/voucher"
	"photogo/internal/repository"
)

const (
	testUser = int64(42)
	slotDate = "2024-03-05"
)

var ctx = context.Background()

type env struct {
	svc       *Service
	catalog   *MockCatalog
	bookings  *MockBookings
	vouchers  *MockVouchers
	customers *MockCustomers
	fetcher   *stubFetcher
	clock     *testClock
}

func testPackage() *domain.ServicePackage {
	return &domain.ServicePackage{
		ID:         "p1",
		Name:       "Wedding",
		LocationID: "loc-1",
		Concepts: []domain.ServiceConcept{
			{ID: "c1", Name: "Classic", Price: 2_000_000, DurationMinutes: 120, RangeType: domain.RangeSingleDay, NumberOfDays: 1},
			{ID: "c2", Name: "Deluxe", Price: 3_000_000, DurationMinutes: 180, RangeType: domain.RangeSingleDay, NumberOfDays: 1},
		},
	}
}

func testSlot(id string, maxP, booked int) domain.TimeSlot {
	return domain.TimeSlot{ID: id, StartTime: "09:00", EndTime: "10:00", MaxParallelBookings: maxP, AlreadyBooked: booked, IsAvailable: true}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		catalog:   new(MockCatalog),
		bookings:  new(MockBookings),
		vouchers:  new(MockVouchers),
		customers: new(MockCustomers),
		fetcher:   newStubFetcher(),
		clock:     &testClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	n := 0
	e.svc = NewService(Deps{
		Catalog:   e.catalog,
		Bookings:  e.bookings,
		Vouchers:  e.vouchers,
		Customers: e.customers,
		NewTracker: func(locationID string) SlotTracker {
			return availability.NewTracker(e.fetcher, locationID, nil)
		},
		Clock: e.clock,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})

	e.catalog.On("GetServicePackage", mock.Anything, "p1").Return(testPackage(), nil).Maybe()
	e.customers.On("Get", mock.Anything, testUser).Return(nil, repository.ErrCustomerInfoNotFound).Maybe()
	return e
}

func (e *env) start(t *testing.T) string {
	t.Helper()
	v, err := e.svc.Start(ctx, testUser, StartRequest{PackageID: "p1"})
	require.NoError(t, err)
	require.Equal(t, StepConceptSelection, v.Step)
	return v.ID
}

func (e *env) toDateTime(t *testing.T, id string) {
	t.Helper()
	e.catalog.On("ValidateConcept", mock.Anything, "c1", "loc-1").Return(nil).Maybe()
	_, err := e.svc.SelectConcept(testUser, id, "c1")
	require.NoError(t, err)
	v, err := e.svc.Next(ctx, testUser, id)
	require.NoError(t, err)
	require.Equal(t, StepDateTimeSelection, v.Step)
}

func (e *env) pickSlot(t *testing.T, id string) {
	t.Helper()
	e.fetcher.set(slotDate, testSlot("s1", 5, 1))
	res, err := e.svc.Slots(ctx, testUser, id, slotDate)
	require.NoError(t, err)
	require.False(t, res.Failed)
	_, err = e.svc.SelectSlot(testUser, id, slotDate, "s1")
	require.NoError(t, err)
}

func (e *env) toCustomerInfo(t *testing.T, id string) {
	t.Helper()
	e.toDateTime(t, id)
	e.pickSlot(t, id)
	v, err := e.svc.Next(ctx, testUser, id)
	require.NoError(t, err)
	require.Equal(t, StepCustomerInfo, v.Step)
}

func strp(s string) *string { return &s }

func (e *env) toPaymentReview(t *testing.T, id string) {
	t.Helper()
	e.toCustomerInfo(t, id)
	e.customers.On("Save", mock.Anything, testUser, mock.Anything).Return(nil).Maybe()
	_, err := e.svc.UpdateCustomer(testUser, id, domain.CustomerPatch{
		Name:  strp("Lan Nguyen"),
		Email: strp("lan@example.com"),
		Phone: strp("0901234567"),
	})
	require.NoError(t, err)
	v, err := e.svc.Next(ctx, testUser, id)
	require.NoError(t, err)
	require.Equal(t, StepPaymentReview, v.Step)
}

func tenPercent() *domain.Voucher {
	return &domain.Voucher{ID: "v1", Code: "SALE10", DiscountType: domain.DiscountPercentage, DiscountValue: decimal.NewFromInt(10), Status: domain.VoucherActive}
}

func TestStart_PrefillsCustomerInfo(t *testing.T) {
	e := newEnv(t)
	e.customers.On("Get", mock.Anything, int64(8)).Return(&domain.CustomerInfo{Name: "Minh", Phone: "0912345678"}, nil)

	v, err := e.svc.Start(ctx, 8, StartRequest{PackageID: "p1"})
	require.NoError(t, err)

	assert.Equal(t, "Minh", v.Draft.Customer.Name)
	assert.Equal(t, "loc-1", v.Draft.LocationID)
	assert.Equal(t, domain.Deposit30, v.Draft.DepositPercent)
	assert.Equal(t, pricing.Breakdown{}, v.Pricing)
}

func TestStart_PackageNotFound(t *testing.T) {
	e := newEnv(t)
	e.catalog.On("GetServicePackage", mock.Anything, "missing").Return(nil, storefront.ErrNotFound)

	_, err := e.svc.Start(ctx, testUser, StartRequest{PackageID: "missing"})
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestStart_UnknownConcept(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Start(ctx, testUser, StartRequest{PackageID: "p1", ConceptID: "zzz"})
	assert.ErrorIs(t, err, ErrConceptNotFound)
}

func TestNext_RequiresConcept(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)

	_, err := e.svc.Next(ctx, testUser, id)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "concept")
	e.catalog.AssertNotCalled(t, "ValidateConcept", mock.Anything, mock.Anything, mock.Anything)
}

func TestNext_ConceptValidationFailureCanBeRetried(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	_, err := e.svc.SelectConcept(testUser, id, "c1")
	require.NoError(t, err)

	e.catalog.On("ValidateConcept", mock.Anything, "c1", "loc-1").Return(storefront.ErrUnexpectedStatus).Once()
	_, err = e.svc.Next(ctx, testUser, id)
	assert.ErrorIs(t, err, ErrConceptValidationFailed)
	v, _ := e.svc.Get(testUser, id)
	assert.Equal(t, StepConceptSelection, v.Step)

	e.catalog.On("ValidateConcept", mock.Anything, "c1", "loc-1").Return(nil).Once()
	v, err = e.svc.Next(ctx, testUser, id)
	require.NoError(t, err)
	assert.Equal(t, StepDateTimeSelection, v.Step)
}

func TestNext_StaleConceptValidationIsDiscarded(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	_, err := e.svc.SelectConcept(testUser, id, "c1")
	require.NoError(t, err)

	// the user switches concept while the validation call is running
	e.catalog.On("ValidateConcept", mock.Anything, "c1", "loc-1").Run(func(mock.Arguments) {
		_, err := e.svc.SelectConcept(testUser, id, "c2")
		require.NoError(t, err)
	}).Return(nil).Once()

	_, err = e.svc.Next(ctx, testUser, id)
	assert.ErrorIs(t, err, ErrStaleResult)

	v, _ := e.svc.Get(testUser, id)
	assert.Equal(t, StepConceptSelection, v.Step)
	assert.Equal(t, "c2", v.Draft.Concept.ID)
}

func TestSelectSlot_FullSlotIsRejected(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toDateTime(t, id)

	e.fetcher.set(slotDate, testSlot("full", 5, 5))
	res, err := e.svc.Slots(ctx, testUser, id, slotDate)
	require.NoError(t, err)
	require.Len(t, res.Slots, 1)

	_, err = e.svc.SelectSlot(testUser, id, slotDate, "full")
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	v, _ := e.svc.Get(testUser, id)
	assert.False(t, v.Draft.DateTime.IsSet())
}

func TestSelectSlot_UnknownSlot(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toDateTime(t, id)

	_, err := e.svc.SelectSlot(testUser, id, slotDate, "ghost")
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestSelectSlot_ClosedDate(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toDateTime(t, id)

	cal := domain.NewAvailabilityCalendar("loc-1")
	cal.WorkingDates[slotDate] = false
	e.fetcher.cal = cal
	dates, err := e.svc.Dates(ctx, testUser, id)
	require.NoError(t, err)
	require.False(t, dates.Failed)

	e.fetcher.set(slotDate, testSlot("s1", 2, 0))
	_, err = e.svc.Slots(ctx, testUser, id, slotDate)
	require.NoError(t, err)

	_, err = e.svc.SelectSlot(testUser, id, slotDate, "s1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSlots_FetchFailureIsReportedNotReturned(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toDateTime(t, id)
	e.fetcher.fail(availability.ErrFetchFailed)

	res, err := e.svc.Slots(ctx, testUser, id, slotDate)
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.Empty(t, res.Slots)
}

func TestSlots_RejectsBadDate(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toDateTime(t, id)

	_, err := e.svc.Slots(ctx, testUser, id, "05/03/2024")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNext_DateTimeRequiresSelection(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toDateTime(t, id)

	_, err := e.svc.Next(ctx, testUser, id)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "dateTime")
}

func TestNext_DateTimeRechecksCapacity(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toDateTime(t, id)
	e.pickSlot(t, id)

	// someone else filled the slot meanwhile
	e.fetcher.set(slotDate, testSlot("s1", 5, 5))

	_, err := e.svc.Next(ctx, testUser, id)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	v, _ := e.svc.Get(testUser, id)
	assert.Equal(t, StepDateTimeSelection, v.Step)
}

func TestNext_DateTimeUpstreamDown(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toDateTime(t, id)
	e.pickSlot(t, id)
	e.fetcher.fail(availability.ErrFetchFailed)

	_, err := e.svc.Next(ctx, testUser, id)
	assert.ErrorIs(t, err, ErrAvailabilityUnavailable)
}

// Going back to change the concept must not let a stale slot through.
func TestBackChangeConceptThenSlotIsRevalidated(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toDateTime(t, id)
	e.pickSlot(t, id)

	_, err := e.svc.Back(testUser, id)
	require.NoError(t, err)

	_, err = e.svc.SelectConcept(testUser, id, "c2")
	require.NoError(t, err)
	e.catalog.On("ValidateConcept", mock.Anything, "c2", "loc-1").Return(nil).Once()
	v, err := e.svc.Next(ctx, testUser, id)
	require.NoError(t, err)
	require.Equal(t, StepDateTimeSelection, v.Step)
	assert.Equal(t, "s1", v.Draft.DateTime.SlotID, "selection survives the round trip")

	e.fetcher.set(slotDate, testSlot("s1", 5, 5))
	_, err = e.svc.Next(ctx, testUser, id)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	e.fetcher.set(slotDate, testSlot("s1", 5, 4))
	v, err = e.svc.Next(ctx, testUser, id)
	require.NoError(t, err)
	assert.Equal(t, StepCustomerInfo, v.Step)
}

func TestNext_CustomerValidation(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toCustomerInfo(t, id)

	_, err := e.svc.UpdateCustomer(testUser, id, domain.CustomerPatch{
		Name:  strp("  "),
		Email: strp("not-an-email"),
		Phone: strp("12345"),
	})
	require.NoError(t, err)

	_, err = e.svc.Next(ctx, testUser, id)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"name":  "name is required",
		"email": "email is invalid",
		"phone": "phone must contain 10 or 11 digits",
	}, verr.Fields)

	v, _ := e.svc.Get(testUser, id)
	assert.Equal(t, StepCustomerInfo, v.Step)
	e.customers.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestNext_CustomerIsSanitizedAndCached(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toCustomerInfo(t, id)

	want := domain.CustomerInfo{Name: "Lan", Email: "lan@example.com", Phone: "0901234567", Notes: "outdoor"}
	e.customers.On("Save", mock.Anything, testUser, want).Return(nil).Once()

	_, err := e.svc.UpdateCustomer(testUser, id, domain.CustomerPatch{
		Name:  strp(" Lan "),
		Email: strp("lan@example.com"),
		Phone: strp("090 123 4567"),
		Notes: strp("outdoor"),
	})
	require.NoError(t, err)

	v, err := e.svc.Next(ctx, testUser, id)
	require.NoError(t, err)
	assert.Equal(t, StepPaymentReview, v.Step)
	assert.Equal(t, want, v.Draft.Customer)
	e.customers.AssertExpectations(t)
}

func TestNext_CustomerCacheFailureIsNotFatal(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toCustomerInfo(t, id)
	e.customers.On("Save", mock.Anything, testUser, mock.Anything).Return(errors.New("db down")).Once()

	_, err := e.svc.UpdateCustomer(testUser, id, domain.CustomerPatch{
		Name: strp("Lan"), Email: strp("lan@example.com"), Phone: strp("0901234567"),
	})
	require.NoError(t, err)

	v, err := e.svc.Next(ctx, testUser, id)
	require.NoError(t, err)
	assert.Equal(t, StepPaymentReview, v.Step)
}

func TestBack_NeverValidates(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)

	_, err := e.svc.Back(testUser, id)
	assert.ErrorIs(t, err, ErrCannotGoBack)

	e.toCustomerInfo(t, id)
	_, err = e.svc.UpdateCustomer(testUser, id, domain.CustomerPatch{Email: strp("broken")})
	require.NoError(t, err)

	v, err := e.svc.Back(testUser, id)
	require.NoError(t, err)
	assert.Equal(t, StepDateTimeSelection, v.Step)
	assert.Equal(t, "broken", v.Draft.Customer.Email)
}

func TestMutations_OutsideTheirStep(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)

	_, err := e.svc.SetDepositPercent(testUser, id, 50)
	assert.ErrorIs(t, err, ErrWrongStep)
	_, err = e.svc.UpdateCustomer(testUser, id, domain.CustomerPatch{Name: strp("x")})
	assert.ErrorIs(t, err, ErrWrongStep)
	_, err = e.svc.SelectSlot(testUser, id, slotDate, "s1")
	assert.ErrorIs(t, err, ErrWrongStep)

	e.toDateTime(t, id)
	_, err = e.svc.SelectConcept(testUser, id, "c2")
	assert.ErrorIs(t, err, ErrWrongStep)
	_, err = e.svc.SetAddOns(testUser, id, AddOnsRequest{domain.AddOnAlbum: true})
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestSetAddOns_MergesFlags(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	_, err := e.svc.SelectConcept(testUser, id, "c1")
	require.NoError(t, err)

	_, err = e.svc.SetAddOns(testUser, id, AddOnsRequest{domain.AddOnPremium: true})
	require.NoError(t, err)
	v, err := e.svc.SetAddOns(testUser, id, AddOnsRequest{domain.AddOnAlbum: true})
	require.NoError(t, err)

	assert.True(t, v.Draft.AddOns.Premium)
	assert.True(t, v.Draft.AddOns.Album)
	assert.Equal(t, int64(4_000_000), v.Pricing.Subtotal)

	_, err = e.svc.SetAddOns(testUser, id, AddOnsRequest{"drone": true})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSetDepositPercent(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toPaymentReview(t, id)

	_, err := e.svc.SetDepositPercent(testUser, id, 40)
	assert.ErrorIs(t, err, ErrValidation)

	v, err := e.svc.SetDepositPercent(testUser, id, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), v.Pricing.DepositAmount)
	assert.Equal(t, int64(0), v.Pricing.RemainingAmount)
}

func TestApplyVoucher_NotApplicableLeavesDraft(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toPaymentReview(t, id)

	big := tenPercent()
	big.Code = "VIP"
	minPrice := int64(10_000_000)
	big.MinPrice = &minPrice
	e.vouchers.On("FindByCode", mock.Anything, testUser, "VIP").Return(big, nil)

	_, err := e.svc.ApplyVoucher(ctx, testUser, id, "VIP")
	var na *voucher.NotApplicableError
	require.ErrorAs(t, err, &na)
	assert.Equal(t, voucher.ReasonBelowMinPrice, na.Reason)

	v, _ := e.svc.Get(testUser, id)
	assert.Nil(t, v.Draft.Voucher)
	assert.Equal(t, int64(0), v.Pricing.Discount)
}

func TestApplyVoucher_NeedsConcept(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)

	_, err := e.svc.ApplyVoucher(ctx, testUser, id, "SALE10")
	assert.ErrorIs(t, err, ErrValidation)
	e.vouchers.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestVouchers_ListsAgainstSubtotal(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	_, err := e.svc.SelectConcept(testUser, id, "c1")
	require.NoError(t, err)

	want := []voucher.Candidate{{Voucher: *tenPercent(), Applicable: true}}
	e.vouchers.On("ListForUser", mock.Anything, testUser, int64(2_000_000), e.clock.Now()).Return(want, nil)

	got, err := e.svc.Vouchers(ctx, testUser, id)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSubmit_Success(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	_, err := e.svc.SelectConcept(testUser, id, "c1")
	require.NoError(t, err)
	_, err = e.svc.SetAddOns(testUser, id, AddOnsRequest{domain.AddOnPremium: true})
	require.NoError(t, err)
	e.toPaymentReview(t, id)

	e.vouchers.On("FindByCode", mock.Anything, testUser, "SALE10").Return(tenPercent(), nil)
	_, err = e.svc.ApplyVoucher(ctx, testUser, id, "SALE10")
	require.NoError(t, err)

	e.bookings.On("CreateBooking", mock.Anything, mock.MatchedBy(func(req storefront.CreateBookingRequest) bool {
		return req.ServiceConceptID == "c1" &&
			req.Date == "05/03/2024" &&
			req.Time == "09:00" &&
			req.SlotID == "s1" &&
			req.AddOns.Premium &&
			req.VoucherCode == "SALE10" &&
			req.Subtotal == 3_500_000 &&
			req.Discount == 350_000 &&
			req.TotalAmount == 3_150_000 &&
			req.DepositAmount == 945_000 &&
			req.DepositPercent == 30 &&
			req.IdempotencyKey != ""
	})).Return(&storefront.CreateBookingResponse{PaymentLink: "https://pay.example/1"}, nil).Once()

	res, err := e.svc.Submit(ctx, testUser, id)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/1", res.PaymentLink)
	assert.Equal(t, int64(945_000), res.Pricing.DepositAmount)

	v, err := e.svc.Get(testUser, id)
	require.NoError(t, err)
	assert.Equal(t, StepSubmitted, v.Step)
	assert.Nil(t, v.Draft)
	assert.False(t, v.CanGoBack)

	again, err := e.svc.Submit(ctx, testUser, id)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/1", again.PaymentLink)
	e.bookings.AssertNumberOfCalls(t, "CreateBooking", 1)

	_, err = e.svc.Back(testUser, id)
	assert.ErrorIs(t, err, ErrCannotGoBack)
}

func TestSubmit_FailureKeepsDraftAndKey(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toPaymentReview(t, id)

	var keys []string
	capture := func(args mock.Arguments) {
		keys = append(keys, args.Get(1).(storefront.CreateBookingRequest).IdempotencyKey)
	}
	e.bookings.On("CreateBooking", mock.Anything, mock.Anything).Run(capture).Return(nil, storefront.ErrUnexpectedStatus).Once()
	e.bookings.On("CreateBooking", mock.Anything, mock.Anything).Run(capture).Return(&storefront.CreateBookingResponse{PaymentLink: "https://pay.example/2"}, nil).Once()

	_, err := e.svc.Submit(ctx, testUser, id)
	assert.ErrorIs(t, err, ErrSubmissionFailed)

	v, _ := e.svc.Get(testUser, id)
	assert.Equal(t, StepPaymentReview, v.Step)
	require.NotNil(t, v.Draft)
	assert.Equal(t, "Lan Nguyen", v.Draft.Customer.Name)

	res, err := e.svc.Submit(ctx, testUser, id)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/2", res.PaymentLink)

	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1])
}

func TestSubmit_ChangedDraftGetsNewKey(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toPaymentReview(t, id)

	var keys []string
	e.bookings.On("CreateBooking", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		keys = append(keys, args.Get(1).(storefront.CreateBookingRequest).IdempotencyKey)
	}).Return(nil, storefront.ErrTransport)

	_, _ = e.svc.Submit(ctx, testUser, id)
	_, err := e.svc.SetDepositPercent(testUser, id, 50)
	require.NoError(t, err)
	_, _ = e.svc.Submit(ctx, testUser, id)

	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
}

func TestSubmit_ConflictIsCapacityExceeded(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toPaymentReview(t, id)
	e.bookings.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: slot is full", storefront.ErrConflict))

	_, err := e.svc.Submit(ctx, testUser, id)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	v, _ := e.svc.Get(testUser, id)
	assert.Equal(t, StepPaymentReview, v.Step)
	assert.NotNil(t, v.Draft)
}

func TestSubmit_RechecksVoucher(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	e.toPaymentReview(t, id)

	v := tenPercent()
	validTo := e.clock.Now().Add(time.Hour)
	v.ValidTo = &validTo
	e.vouchers.On("FindByCode", mock.Anything, testUser, "SALE10").Return(v, nil)
	_, err := e.svc.ApplyVoucher(ctx, testUser, id, "SALE10")
	require.NoError(t, err)

	e.clock.Add(2 * time.Hour)

	view, _ := e.svc.Get(testUser, id)
	require.NotNil(t, view.VoucherApplicable)
	assert.False(t, *view.VoucherApplicable)

	_, err = e.svc.Submit(ctx, testUser, id)
	assert.ErrorIs(t, err, voucher.ErrNotApplicable)
	e.bookings.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)

	_, err = e.svc.RemoveVoucher(testUser, id)
	require.NoError(t, err)
	e.bookings.On("CreateBooking", mock.Anything, mock.Anything).Return(&storefront.CreateBookingResponse{PaymentLink: "https://pay.example/3"}, nil)
	_, err = e.svc.Submit(ctx, testUser, id)
	assert.NoError(t, err)
}

func TestSubmit_WrongStep(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)

	_, err := e.svc.Submit(ctx, testUser, id)
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestGet_OtherUsersWizardIsHidden(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)

	_, err := e.svc.Get(testUser+1, id)
	assert.ErrorIs(t, err, ErrWizardNotFound)
}

func TestCancel_DiscardsWizard(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)

	require.NoError(t, e.svc.Cancel(testUser, id))

	_, err := e.svc.Get(testUser, id)
	assert.ErrorIs(t, err, ErrWizardNotFound)
}

func TestView_PricingFollowsDraft(t *testing.T) {
	e := newEnv(t)
	id := e.start(t)
	_, err := e.svc.SelectConcept(testUser, id, "c1")
	require.NoError(t, err)
	v, err := e.svc.SetAddOns(testUser, id, AddOnsRequest{domain.AddOnPremium: true})
	require.NoError(t, err)

	assert.Equal(t, pricing.Breakdown{
		Subtotal:        3_500_000,
		FinalAmount:     3_500_000,
		DepositAmount:   1_050_000,
		RemainingAmount: 2_450_000,
	}, v.Pricing)
}
