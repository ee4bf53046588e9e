package models

// WorkingWindow is a [From, To] interval in minutes from local midnight
// within which a provider accepts bookings.
type WorkingWindow struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// WorkingTime is a provider's working-hour configuration. Resolution order
// for a date is SpecificDates, then Outcast, then Weekly.
type WorkingTime struct {
	// Weekly maps a lowercase weekday name ("monday") to recurring windows.
	Weekly map[string][]WorkingWindow `json:"weekly,omitempty"`
	// SpecificDates maps an exact "2006-01-02" day to override windows.
	SpecificDates map[string][]WorkingWindow `json:"specificDates,omitempty"`
	// Outcast maps a "01-02" month-day (year ignored) to override windows.
	Outcast map[string][]WorkingWindow `json:"outcast,omitempty"`
}

// TimelinePoint records that the provider's concurrency level becomes
// Concurrent starting at Timestamp (epoch seconds).
type TimelinePoint struct {
	Timestamp  int64 `json:"timestamp"`
	Concurrent int   `json:"concurrent"`
}

// Provider offers one or more services under a concurrency cap.
type Provider struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	WorkingTime      WorkingTime     `json:"workingTime"`
	Timeline         []TimelinePoint `json:"timeline,omitempty"`
	ConcurrencyLimit int             `json:"concurrencyLimit"`
}
