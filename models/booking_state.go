package models

import "time"

// Workflow step names in canonical order.
const (
	StepMethod   = "method"
	StepProvider = "provider"
	StepDatetime = "datetime"
	StepReview   = "review"
)

// Step is one entry of the derived active step sequence.
type Step struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// BookingState is the full state of one booking workflow. It is owned by the
// workflow controller and mutated only through its operations.
type BookingState struct {
	Service     *Service `json:"service,omitempty"`
	Steps       []Step   `json:"steps"`
	CurrentStep int      `json:"currentStep"` // 1-based cursor into Steps

	SelectedMethod   string     `json:"selectedMethod,omitempty"`
	Providers        []Provider `json:"providers,omitempty"`
	SelectedProvider *Provider  `json:"selectedProvider,omitempty"`

	// Calendar view.
	Current   time.Time     `json:"current"` // first day of the visible month
	MonthYear string        `json:"monthYear"`
	Days      []CalendarDay `json:"days"`

	// Selection.
	SelectedDate string `json:"selectedDate,omitempty"` // "2006-01-02"
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Slots        []Slot `json:"slots"`
	SelectedSlot *Slot  `json:"selectedSlot,omitempty"`
	IsMultiDay   bool   `json:"isMultiDay"`

	Timezone string `json:"timezone"`
	Loading  bool   `json:"loading"`
}
