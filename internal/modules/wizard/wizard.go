package wizard

import (
	"sync"
	"sync/atomic"
	"time"

	"photogo/internal/domain"
	"photogo/internal/modules/pricing"
	"photogo/internal/modules/voucher"
)

// Wizard is one user's booking session. Every field below mu is guarded by it.
// version moves on every transition and every draft change; async results
// are applied only if the version they started from is still current.
type Wizard struct {
	ID        string
	UserID    int64
	CreatedAt time.Time

	lastSeen atomic.Int64

	mu             sync.Mutex
	step           Step
	version        uint64
	pkg            *domain.ServicePackage
	draft          *domain.BookingDraft
	tracker        SlotTracker
	submitting     bool
	idempotencyKey string
	keyVersion     uint64
	paymentLink    string
}

func newWizard(id string, userID int64, pkg *domain.ServicePackage, draft *domain.BookingDraft, tracker SlotTracker, now time.Time) *Wizard {
	w := &Wizard{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		step:      StepConceptSelection,
		pkg:       pkg,
		draft:     draft,
		tracker:   tracker,
	}
	w.touch(now)
	return w
}

func (w *Wizard) touch(now time.Time) { w.lastSeen.Store(now.UnixNano()) }

func (w *Wizard) LastSeen() time.Time { return time.Unix(0, w.lastSeen.Load()) }

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns a copy of the current draft, nil once submitted.
func (w *Wizard) Draft() *domain.BookingDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Clone()
}

func (w *Wizard) guardLocked(allowed ...Step) error {
	if w.submitting {
		return ErrSubmissionInFlight
	}
	for _, s := range allowed {
		if w.step == s {
			return nil
		}
	}
	return ErrWrongStep
}

func (w *Wizard) advanceLocked() {
	w.step = w.step.next()
	w.version++
}

type View struct {
	ID                string                 `json:"id"`
	Step              Step                   `json:"step"`
	StepIndex         int                    `json:"stepIndex"`
	CanGoBack         bool                   `json:"canGoBack"`
	Submitting        bool                   `json:"submitting"`
	Package           *domain.ServicePackage `json:"package"`
	Draft             *domain.BookingDraft   `json:"draft,omitempty"`
	Pricing           pricing.Breakdown      `json:"pricing"`
	VoucherApplicable *bool                  `json:"voucherApplicable,omitempty"`
	PaymentLink       string                 `json:"paymentLink,omitempty"`
}

func (w *Wizard) viewLocked(now time.Time) *View {
	v := &View{
		ID:          w.ID,
		Step:        w.step,
		StepIndex:   w.step.Index(),
		CanGoBack:   w.step.CanGoBack() && !w.submitting,
		Submitting:  w.submitting,
		Package:     w.pkg,
		Draft:       w.draft.Clone(),
		PaymentLink: w.paymentLink,
	}
	if w.draft != nil {
		v.Pricing = pricing.Compute(w.draft)
		if w.draft.Voucher != nil {
			ok := voucher.IsApplicable(w.draft.Voucher, v.Pricing.Subtotal, now)
			v.VoucherApplicable = &ok
		}
	}
	return v
}
