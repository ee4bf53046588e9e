package models

// Reservation methods a service can expose.
const (
	MethodStandard         = "STANDARD"
	MethodSpecificProvider = "SPECIFIC_PROVIDER"
)

// DurationSegment is one leg of a service's duration. Pause segments are not
// serviced time but still occupy the provider's calendar.
type DurationSegment struct {
	Minutes int  `json:"minutes"`
	IsPause bool `json:"isPause,omitempty"`
}

// Price is a market-scoped price in minor units.
type Price struct {
	Market string `json:"market"`
	Amount int64  `json:"amount"`
}

// Service is a bookable offering.
type Service struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Durations          []DurationSegment `json:"durations"`
	MultiDay           bool              `json:"multiDay"`
	Prices             []Price           `json:"prices,omitempty"`
	ReservationMethods []string          `json:"reservationMethods"`
}

// TotalDurationMinutes sums every duration segment, pauses included.
func (s Service) TotalDurationMinutes() int {
	total := 0
	for _, seg := range s.Durations {
		total += seg.Minutes
	}
	return total
}
