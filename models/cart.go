package models

// CartPart is a confirmed slot snapshot held in the reservation cart.
type CartPart struct {
	ID                string `json:"id"`
	ServiceID         string `json:"serviceId"`
	ServiceName       string `json:"serviceName"`
	ProviderID        string `json:"providerId,omitempty"`
	DateText          string `json:"date"`
	From              int64  `json:"from"`
	To                int64  `json:"to"`
	TimeText          string `json:"timeText"`
	IsMultiDay        bool   `json:"isMultiDay"`
	ReservationMethod string `json:"reservationMethod"`
}

// ContactInfo is the customer contact attached to a checkout submission.
type ContactInfo struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber"`
}
