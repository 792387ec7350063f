package domain

type RangeType string

const (
	RangeSingleDay RangeType = "single_day"
	RangeMultiDay  RangeType = "multi_day"
)

// ServiceConcept is one purchasable variant of a service package.
type ServiceConcept struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Price           int64     `json:"price"`
	DurationMinutes int       `json:"durationMinutes"`
	RangeType       RangeType `json:"rangeType"`
	NumberOfDays    int       `json:"numberOfDays"`
}

type ServicePackage struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Price      int64            `json:"price"`
	Images     []string         `json:"images"`
	LocationID string           `json:"locationId"`
	Concepts   []ServiceConcept `json:"concepts"`
}

func (p *ServicePackage) Concept(id string) (ServiceConcept, bool) {
	if p == nil {
		return ServiceConcept{}, false
	}
	for _, c := range p.Concepts {
		if c.ID == id {
			return c, true
		}
	}
	return ServiceConcept{}, false
}
