package wizard

type Step string

const (
	StepConceptSelection  Step = "concept_selection"
	StepDateTimeSelection Step = "date_time_selection"
	StepCustomerInfo      Step = "customer_info"
	StepPaymentReview     Step = "payment_review"
	StepSubmitted         Step = "submitted"
)

var stepOrder = []Step{
	StepConceptSelection,
	StepDateTimeSelection,
	StepCustomerInfo,
	StepPaymentReview,
	StepSubmitted,
}

func (s Step) Index() int {
	for i, st := range stepOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Step) next() Step {
	i := s.Index()
	if i < 0 || i == len(stepOrder)-1 {
		return s
	}
	return stepOrder[i+1]
}

func (s Step) prev() Step {
	i := s.Index()
	if i <= 0 {
		return s
	}
	return stepOrder[i-1]
}

// CanGoBack is true for every step after the first one, except the terminal one.
func (s Step) CanGoBack() bool {
	return s != StepConceptSelection && s != StepSubmitted
}
