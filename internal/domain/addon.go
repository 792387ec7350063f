package domain

type AddOn string

const (
	AddOnPremium   AddOn = "premium"
	AddOnAlbum     AddOn = "album"
	AddOnExtraHour AddOn = "extraHour"
)

// Fixed surcharges in VND.
const (
	PremiumPrice   int64 = 1_500_000
	AlbumPrice     int64 = 500_000
	ExtraHourPrice int64 = 300_000
)

var AllAddOns = []AddOn{AddOnPremium, AddOnAlbum, AddOnExtraHour}

func (a AddOn) Valid() bool {
	switch a {
	case AddOnPremium, AddOnAlbum, AddOnExtraHour:
		return true
	}
	return false
}

func (a AddOn) Price() int64 {
	switch a {
	case AddOnPremium:
		return PremiumPrice
	case AddOnAlbum:
		return AlbumPrice
	case AddOnExtraHour:
		return ExtraHourPrice
	}
	return 0
}

// AddOns is the set of optional extras toggled on a draft.
type AddOns struct {
	Premium   bool `json:"premium"`
	Album     bool `json:"album"`
	ExtraHour bool `json:"extraHour"`
}

func (s AddOns) Has(a AddOn) bool {
	switch a {
	case AddOnPremium:
		return s.Premium
	case AddOnAlbum:
		return s.Album
	case AddOnExtraHour:
		return s.ExtraHour
	}
	return false
}

// With returns a copy of s with a switched on or off. Unknown add-ons are ignored.
func (s AddOns) With(a AddOn, on bool) AddOns {
	switch a {
	case AddOnPremium:
		s.Premium = on
	case AddOnAlbum:
		s.Album = on
	case AddOnExtraHour:
		s.ExtraHour = on
	}
	return s
}

func (s AddOns) Active() []AddOn {
	var out []AddOn
	for _, a := range AllAddOns {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}
