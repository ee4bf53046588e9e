package models

import "time"

// Slot is a concrete bookable time range for one service/provider pair.
// From is inclusive, To exclusive, both epoch seconds.
type Slot struct {
	ID         string `json:"id"`
	ServiceID  string `json:"serviceId"`
	ProviderID string `json:"providerId"`
	From       int64  `json:"from"`
	To         int64  `json:"to"`
	Day        string `json:"day"` // "2006-01-02" of the slot's date
	TimeText   string `json:"timeText"`
	IsMultiDay bool   `json:"isMultiDay,omitempty"`
}

// CalendarDay is one cell of the month-view grid. Blank cells pad the grid
// so that every row holds a full Monday-first week.
type CalendarDay struct {
	Key        string    `json:"key"`
	Blank      bool      `json:"blank"`
	Date       time.Time `json:"date,omitzero"`
	ISO        string    `json:"iso,omitempty"`
	Available  bool      `json:"available"`
	IsSelected bool      `json:"isSelected"`
	IsInRange  bool      `json:"isInRange"`
	IsToday    bool      `json:"isToday"`
}
