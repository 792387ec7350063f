package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"photogo/internal/domain"
	"photogo/internal/integrations/storefront"
	"photogo/internal/modules/availability"
	"photogo/internal/modules/pricing"
	"photogo/internal/modules/voucher"
	"photogo/internal/pkg/datefmt"
	"photogo/internal/pkg/validator"
	"photogo/internal/repository"
)

var tracer = otel.Tracer("photogo/wizard")

var customerMessages = map[string]string{
	"name":  "name is required",
	"email": "email is invalid",
	"phone": "phone must contain 10 or 11 digits",
}

type Deps struct {
	Catalog        Catalog
	Bookings       BookingSubmitter
	Vouchers       Vouchers
	Customers      repository.CustomerInfoRepository
	NewTracker     TrackerFactory
	Store          *Store
	Clock          TimeProvider
	NewID          func() string
	Observer       Observer
	DefaultDeposit domain.DepositPercent
	Log            *zap.Logger
}

type Service struct {
	catalog        Catalog
	bookings       BookingSubmitter
	vouchers       Vouchers
	customers      repository.CustomerInfoRepository
	newTracker     TrackerFactory
	store          *Store
	clock          TimeProvider
	newID          func() string
	observer       Observer
	defaultDeposit domain.DepositPercent
	log            *zap.Logger
}

func NewService(d Deps) *Service {
	s := &Service{
		catalog:        d.Catalog,
		bookings:       d.Bookings,
		vouchers:       d.Vouchers,
		customers:      d.Customers,
		newTracker:     d.NewTracker,
		store:          d.Store,
		clock:          d.Clock,
		newID:          d.NewID,
		observer:       d.Observer,
		defaultDeposit: d.DefaultDeposit,
		log:            d.Log,
	}
	if s.clock == nil {
		s.clock = RealTimeProvider{}
	}
	if s.store == nil {
		s.store = NewStore(0, s.clock)
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	if !s.defaultDeposit.Valid() {
		s.defaultDeposit = domain.DefaultDepositPercent
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Start opens a wizard on a service package. Contact details the user
// entered last time are prefilled.
func (s *Service) Start(ctx context.Context, userID int64, req StartRequest) (*View, error) {
	ctx, span := tracer.Start(ctx, "wizard.start")
	defer span.End()

	// 1. Load the package
	pkg, err := s.catalog.GetServicePackage(ctx, strings.TrimSpace(req.PackageID))
	if err != nil {
		if errors.Is(err, storefront.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, req.PackageID)
		}
		s.log.Error("wizard.start: catalog failed", zap.String("package_id", req.PackageID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	// 2. Resolve location
	locationID := strings.TrimSpace(req.LocationID)
	if locationID == "" {
		locationID = pkg.LocationID
	}
	if locationID == "" {
		return nil, fieldError("locationId", "location is required")
	}

	// 3. Build the draft
	draft := domain.NewBookingDraft(locationID, s.defaultDeposit)
	if req.ConceptID != "" {
		c, ok := pkg.Concept(req.ConceptID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrConceptNotFound, req.ConceptID)
		}
		draft.Apply(domain.DraftPatch{Concept: &c})
	}
	if s.customers != nil {
		info, err := s.customers.Get(ctx, userID)
		switch {
		case err == nil:
			draft.Customer = *info
		case !errors.Is(err, repository.ErrCustomerInfoNotFound):
			s.log.Warn("wizard.start: customer info prefill failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	// 4. Register
	now := s.clock.Now()
	w := newWizard(s.newID(), userID, pkg, draft, s.newTracker(locationID), now)
	s.store.Put(w)
	s.observer.SetActiveWizards(s.store.Len())

	span.SetAttributes(attribute.String("wizard.id", w.ID))
	s.log.Info("wizard.start", zap.String("wizard_id", w.ID), zap.Int64("user_id", userID), zap.String("package_id", pkg.ID))

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked(now), nil
}

func (s *Service) Get(userID int64, id string) (*View, error) {
	w, err := s.get(userID, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked(s.clock.Now()), nil
}

// Cancel discards the wizard and its draft.
func (s *Service) Cancel(userID int64, id string) error {
	w, err := s.get(userID, id)
	if err != nil {
		return err
	}
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	w.draft = nil
	w.version++
	w.mu.Unlock()

	s.store.Delete(id)
	s.observer.SetActiveWizards(s.store.Len())
	s.log.Info("wizard.cancel", zap.String("wizard_id", id), zap.Int64("user_id", userID))
	return nil
}

func (s *Service) SelectConcept(userID int64, id, conceptID string) (*View, error) {
	return s.mutate(userID, id, []Step{StepConceptSelection}, func(w *Wizard) error {
		c, ok := w.pkg.Concept(conceptID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrConceptNotFound, conceptID)
		}
		w.draft.Apply(domain.DraftPatch{Concept: &c})
		return nil
	})
}

func (s *Service) SetAddOns(userID int64, id string, addOns AddOnsRequest) (*View, error) {
	for a := range addOns {
		if !a.Valid() {
			return nil, fieldError("addOns."+string(a), "unknown add-on")
		}
	}
	return s.mutate(userID, id, []Step{StepConceptSelection}, func(w *Wizard) error {
		w.draft.Apply(domain.DraftPatch{AddOns: addOns})
		return nil
	})
}

// Dates loads the location calendar. Upstream failures come back as flags on
// the result, never as an error.
func (s *Service) Dates(ctx context.Context, userID int64, id string) (*availability.DatesResult, error) {
	tracker, err := s.trackerAt(userID, id, StepDateTimeSelection)
	if err != nil {
		return nil, err
	}
	res := tracker.LoadDates(ctx)
	return &res, nil
}

func (s *Service) Slots(ctx context.Context, userID int64, id, date string) (*availability.SlotsResult, error) {
	if _, err := datefmt.ParseInternal(date); err != nil {
		return nil, fieldError("date", "date must be YYYY-MM-DD")
	}
	tracker, err := s.trackerAt(userID, id, StepDateTimeSelection)
	if err != nil {
		return nil, err
	}
	res := tracker.LoadSlots(ctx, date)
	return &res, nil
}

// SelectSlot picks one of the slots already loaded for date.
func (s *Service) SelectSlot(userID int64, id, date, slotID string) (*View, error) {
	return s.mutate(userID, id, []Step{StepDateTimeSelection}, func(w *Wizard) error {
		if cal := w.tracker.Calendar(); cal != nil && !cal.IsAvailable(date) {
			return fieldError("date", "date is not available")
		}
		slot, ok := w.tracker.Slot(date, slotID)
		if !ok {
			return fmt.Errorf("%w: %s on %s", ErrSlotNotFound, slotID, date)
		}
		if !slot.Selectable() {
			return fmt.Errorf("%w: %s on %s", ErrCapacityExceeded, slotID, date)
		}
		w.draft.Apply(domain.DraftPatch{DateTime: &domain.BookingDateTime{Date: date, Time: slot.StartTime, SlotID: slot.ID}})
		return nil
	})
}

func (s *Service) UpdateCustomer(userID int64, id string, patch domain.CustomerPatch) (*View, error) {
	return s.mutate(userID, id, []Step{StepCustomerInfo}, func(w *Wizard) error {
		w.draft.Apply(domain.DraftPatch{Customer: &patch})
		return nil
	})
}

func (s *Service) SetDepositPercent(userID int64, id string, percent int) (*View, error) {
	p := domain.DepositPercent(percent)
	if !p.Valid() {
		return nil, fieldError("depositPercent", "deposit must be 30, 50, 70 or 100 percent")
	}
	return s.mutate(userID, id, []Step{StepPaymentReview}, func(w *Wizard) error {
		w.draft.Apply(domain.DraftPatch{DepositPercent: &p})
		return nil
	})
}

// Vouchers lists the user's vouchers annotated against the current subtotal.
func (s *Service) Vouchers(ctx context.Context, userID int64, id string) ([]voucher.Candidate, error) {
	w, err := s.get(userID, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	if w.draft == nil {
		w.mu.Unlock()
		return nil, ErrWrongStep
	}
	subtotal := pricing.Subtotal(w.draft)
	w.mu.Unlock()

	return s.vouchers.ListForUser(ctx, userID, subtotal, s.clock.Now())
}

// ApplyVoucher resolves code among the user's vouchers and attaches it.
// Vouchers become editable once a concept is chosen.
func (s *Service) ApplyVoucher(ctx context.Context, userID int64, id, code string) (*View, error) {
	w, err := s.get(userID, id)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if err := w.guardLocked(StepConceptSelection, StepPaymentReview); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.draft.Concept == nil {
		w.mu.Unlock()
		return nil, fieldError("concept", "select a concept first")
	}
	version := w.version
	w.mu.Unlock()

	v, err := s.vouchers.FindByCode(ctx, userID, code)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.version != version {
		return nil, ErrStaleResult
	}
	now := s.clock.Now()
	if err := voucher.Select(w.draft, v, now); err != nil {
		return nil, err
	}
	w.version++
	return w.viewLocked(now), nil
}

func (s *Service) RemoveVoucher(userID int64, id string) (*View, error) {
	return s.mutate(userID, id, []Step{StepConceptSelection, StepPaymentReview}, func(w *Wizard) error {
		voucher.Remove(w.draft)
		return nil
	})
}

// Next validates the current step and moves forward. PaymentReview is left
// through Submit.
func (s *Service) Next(ctx context.Context, userID int64, id string) (*View, error) {
	ctx, span := tracer.Start(ctx, "wizard.next")
	defer span.End()

	w, err := s.get(userID, id)
	if err != nil {
		return nil, err
	}
	from := w.Step()
	span.SetAttributes(attribute.String("wizard.id", id), attribute.String("wizard.step", string(from)))

	var view *View
	switch from {
	case StepConceptSelection:
		view, err = s.confirmConcept(ctx, w)
	case StepDateTimeSelection:
		view, err = s.confirmSlot(ctx, w)
	case StepCustomerInfo:
		view, err = s.confirmCustomer(ctx, w)
	default:
		err = fmt.Errorf("%w: next is not available at %s", ErrWrongStep, from)
	}

	s.observeTransition(span, from, from.next(), err)
	if err != nil {
		s.log.Info("wizard.next rejected", zap.String("wizard_id", id), zap.String("step", string(from)), zap.Error(err))
		return nil, err
	}
	return view, nil
}

func (s *Service) confirmConcept(ctx context.Context, w *Wizard) (*View, error) {
	w.mu.Lock()
	if err := w.guardLocked(StepConceptSelection); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.draft.Concept == nil {
		w.mu.Unlock()
		return nil, fieldError("concept", "select a concept")
	}
	conceptID, locationID, version := w.draft.Concept.ID, w.draft.LocationID, w.version
	w.mu.Unlock()

	verr := s.catalog.ValidateConcept(ctx, conceptID, locationID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.version != version {
		return nil, ErrStaleResult
	}
	if verr != nil {
		return nil, fmt.Errorf("%w: %v", ErrConceptValidationFailed, verr)
	}
	w.advanceLocked()
	return w.viewLocked(s.clock.Now()), nil
}

// confirmSlot re-reads the chosen slot from upstream; what the user saw
// earlier may be stale.
func (s *Service) confirmSlot(ctx context.Context, w *Wizard) (*View, error) {
	w.mu.Lock()
	if err := w.guardLocked(StepDateTimeSelection); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	dt := w.draft.DateTime
	if !dt.IsSet() {
		w.mu.Unlock()
		return nil, fieldError("dateTime", "choose a date and a time slot")
	}
	tracker, version := w.tracker, w.version
	w.mu.Unlock()

	res := tracker.Confirm(ctx, dt.Date, dt.SlotID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.version != version {
		return nil, ErrStaleResult
	}
	switch {
	case res.Failed:
		return nil, fmt.Errorf("%w: %s", ErrAvailabilityUnavailable, res.Error)
	case !res.Found:
		return nil, fmt.Errorf("%w: %s on %s", ErrSlotNotFound, dt.SlotID, dt.Date)
	case !res.Slot.Selectable():
		return nil, fmt.Errorf("%w: %s on %s", ErrCapacityExceeded, dt.SlotID, dt.Date)
	}
	w.draft.DateTime.Time = res.Slot.StartTime
	w.advanceLocked()
	return w.viewLocked(s.clock.Now()), nil
}

func (s *Service) confirmCustomer(ctx context.Context, w *Wizard) (*View, error) {
	w.mu.Lock()
	if err := w.guardLocked(StepCustomerInfo); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	info, err := validateCustomer(w.draft.Customer)
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.draft.Customer = info
	w.advanceLocked()
	view := w.viewLocked(s.clock.Now())
	userID := w.UserID
	w.mu.Unlock()

	if s.customers != nil {
		if err := s.customers.Save(ctx, userID, info); err != nil {
			s.log.Warn("wizard.next: customer info not cached", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return view, nil
}

func validateCustomer(info domain.CustomerInfo) (domain.CustomerInfo, error) {
	info.Name = strings.TrimSpace(info.Name)
	info.Email = strings.TrimSpace(info.Email)
	info.Phone = validator.SanitizePhone(info.Phone)
	info.Notes = strings.TrimSpace(info.Notes)

	errs := validator.Validate(customerForm{Name: info.Name, Email: info.Email, Phone: info.Phone})
	if len(errs) == 0 {
		return info, nil
	}
	fields := make(map[string]string, len(errs))
	for f := range errs {
		msg, ok := customerMessages[f]
		if !ok {
			msg = "is invalid"
		}
		fields[f] = msg
	}
	return info, &ValidationError{Fields: fields}
}

// Back moves one step back without validating anything.
func (s *Service) Back(userID int64, id string) (*View, error) {
	w, err := s.get(userID, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return nil, ErrSubmissionInFlight
	}
	if !w.step.CanGoBack() {
		return nil, fmt.Errorf("%w: %s", ErrCannotGoBack, w.step)
	}
	from := w.step
	w.step = w.step.prev()
	w.version++
	s.observer.ObserveTransition(string(from), string(w.step), "ok")
	return w.viewLocked(s.clock.Now()), nil
}

// Submit sends the booking. On failure the draft stays and Submit can be
// called again; the same idempotency key is reused while the draft is unchanged.
func (s *Service) Submit(ctx context.Context, userID int64, id string) (*SubmitResult, error) {
	ctx, span := tracer.Start(ctx, "wizard.submit")
	defer span.End()
	span.SetAttributes(attribute.String("wizard.id", id))

	w, err := s.get(userID, id)
	if err != nil {
		return nil, err
	}

	// 1. Snapshot the draft
	w.mu.Lock()
	if w.step == StepSubmitted {
		res := &SubmitResult{PaymentLink: w.paymentLink}
		w.mu.Unlock()
		return res, nil
	}
	if err := w.guardLocked(StepPaymentReview); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	now := s.clock.Now()
	draft := w.draft.Clone()
	breakdown := pricing.Compute(draft)

	// 2. Re-check what may have changed since it was chosen
	if draft.Voucher != nil {
		if err := voucher.Check(draft.Voucher, breakdown.Subtotal, now); err != nil {
			w.mu.Unlock()
			return nil, err
		}
	}
	if w.idempotencyKey == "" || w.keyVersion != w.version {
		w.idempotencyKey = s.newID()
		w.keyVersion = w.version
	}
	req, err := buildBookingRequest(draft, breakdown, w.idempotencyKey)
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.submitting = true
	w.mu.Unlock()

	// 3. Submit
	resp, serr := s.bookings.CreateBooking(ctx, req)

	// 4. Apply the outcome
	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if serr != nil {
		if errors.Is(serr, storefront.ErrConflict) {
			err = fmt.Errorf("%w: %v", ErrCapacityExceeded, serr)
		} else {
			err = fmt.Errorf("%w: %v", ErrSubmissionFailed, serr)
		}
		s.observeTransition(span, StepPaymentReview, StepSubmitted, err)
		s.log.Warn("wizard.submit failed", zap.String("wizard_id", id), zap.Int64("user_id", userID), zap.Error(serr))
		return nil, err
	}

	w.step = StepSubmitted
	w.version++
	w.draft = nil
	w.tracker = nil
	w.paymentLink = resp.PaymentLink
	s.observeTransition(span, StepPaymentReview, StepSubmitted, nil)
	s.log.Info("wizard.submit", zap.String("wizard_id", id), zap.Int64("user_id", userID),
		zap.Int64("deposit_amount", breakdown.DepositAmount))

	return &SubmitResult{PaymentLink: resp.PaymentLink, Pricing: breakdown}, nil
}

func buildBookingRequest(d *domain.BookingDraft, b pricing.Breakdown, key string) (storefront.CreateBookingRequest, error) {
	missing := map[string]string{}
	if d.Concept == nil {
		missing["concept"] = "select a concept"
	}
	if !d.DateTime.IsSet() {
		missing["dateTime"] = "choose a date and a time slot"
	}
	if d.Customer.Name == "" || d.Customer.Email == "" || d.Customer.Phone == "" {
		missing["customer"] = "contact details are incomplete"
	}
	if len(missing) > 0 {
		return storefront.CreateBookingRequest{}, &ValidationError{Fields: missing}
	}

	date, err := datefmt.InternalToExternal(d.DateTime.Date)
	if err != nil {
		return storefront.CreateBookingRequest{}, fieldError("dateTime", "date is invalid")
	}

	req := storefront.CreateBookingRequest{
		ServiceConceptID: d.Concept.ID,
		LocationID:       d.LocationID,
		Date:             date,
		Time:             d.DateTime.Time,
		SlotID:           d.DateTime.SlotID,
		AddOns: storefront.BookingAddOns{
			Premium:   d.AddOns.Premium,
			Album:     d.AddOns.Album,
			ExtraHour: d.AddOns.ExtraHour,
		},
		Customer: storefront.BookingCustomer{
			Name:  d.Customer.Name,
			Email: d.Customer.Email,
			Phone: d.Customer.Phone,
			Notes: d.Customer.Notes,
		},
		DepositPercent: int(d.DepositPercent),
		Subtotal:       b.Subtotal,
		Discount:       b.Discount,
		TotalAmount:    b.FinalAmount,
		DepositAmount:  b.DepositAmount,
		IdempotencyKey: key,
	}
	if d.Voucher != nil {
		req.VoucherCode = d.Voucher.Code
	}
	return req, nil
}

func (s *Service) get(userID int64, id string) (*Wizard, error) {
	w, ok := s.store.Get(id)
	if !ok || w.UserID != userID {
		return nil, ErrWizardNotFound
	}
	w.touch(s.clock.Now())
	return w, nil
}

func (s *Service) trackerAt(userID int64, id string, step Step) (SlotTracker, error) {
	w, err := s.get(userID, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.guardLocked(step); err != nil {
		return nil, err
	}
	return w.tracker, nil
}

// mutate runs a synchronous step-local change under the wizard lock.
func (s *Service) mutate(userID int64, id string, allowed []Step, fn func(w *Wizard) error) (*View, error) {
	w, err := s.get(userID, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.guardLocked(allowed...); err != nil {
		return nil, fmt.Errorf("%w: at %s", err, w.step)
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	w.version++
	return w.viewLocked(s.clock.Now()), nil
}

func (s *Service) observeTransition(span trace.Span, from, to Step, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		result = "invalid"
	case errors.Is(err, ErrStaleResult):
		result = "stale"
	case errors.Is(err, ErrCapacityExceeded):
		result = "capacity_exceeded"
	default:
		result = "failed"
	}
	s.observer.ObserveTransition(string(from), string(to), result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
}
