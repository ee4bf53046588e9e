package backend

import (
	"bookify/models"
	"bookify/services/reservation"
)

// Wire shapes returned by the booking backend. Parsing is fail-fast: a
// malformed payload produces a validation error rather than a silently
// half-filled model.

type providerPayload struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	WorkingTime      workingTimePayload `json:"workingTime"`
	Timeline         []timelinePoint    `json:"timeline"`
	ConcurrencyLimit int                `json:"concurrencyLimit"`
}

type workingTimePayload struct {
	Weekly        map[string][]windowPayload `json:"weekly"`
	SpecificDates map[string][]windowPayload `json:"specificDates"`
	Outcast       map[string][]windowPayload `json:"outcast"`
}

type windowPayload struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

type timelinePoint struct {
	Timestamp  int64 `json:"timestamp"`
	Concurrent int   `json:"concurrent"`
}

func (p providerPayload) toModel() (models.Provider, error) {
	if p.ID == "" {
		return models.Provider{}, reservation.NewValidationError("provider payload missing id")
	}
	wt := models.WorkingTime{
		Weekly:        make(map[string][]models.WorkingWindow, len(p.WorkingTime.Weekly)),
		SpecificDates: make(map[string][]models.WorkingWindow, len(p.WorkingTime.SpecificDates)),
		Outcast:       make(map[string][]models.WorkingWindow, len(p.WorkingTime.Outcast)),
	}
	for key, src := range p.WorkingTime.Weekly {
		windows, err := toWindows(p.ID, src)
		if err != nil {
			return models.Provider{}, err
		}
		wt.Weekly[key] = windows
	}
	for key, src := range p.WorkingTime.SpecificDates {
		windows, err := toWindows(p.ID, src)
		if err != nil {
			return models.Provider{}, err
		}
		wt.SpecificDates[key] = windows
	}
	for key, src := range p.WorkingTime.Outcast {
		windows, err := toWindows(p.ID, src)
		if err != nil {
			return models.Provider{}, err
		}
		wt.Outcast[key] = windows
	}

	timeline := make([]models.TimelinePoint, 0, len(p.Timeline))
	for _, pt := range p.Timeline {
		timeline = append(timeline, models.TimelinePoint{Timestamp: pt.Timestamp, Concurrent: pt.Concurrent})
	}

	limit := p.ConcurrencyLimit
	if limit <= 0 {
		limit = 1
	}
	return models.Provider{
		ID:               p.ID,
		Name:             p.Name,
		WorkingTime:      wt,
		Timeline:         timeline,
		ConcurrencyLimit: limit,
	}, nil
}

func toWindows(providerID string, src []windowPayload) ([]models.WorkingWindow, error) {
	windows := make([]models.WorkingWindow, 0, len(src))
	for _, wp := range src {
		if wp.From == nil || wp.To == nil {
			return nil, reservation.NewValidationError("provider %s has a working window missing from/to", providerID)
		}
		windows = append(windows, models.WorkingWindow{From: *wp.From, To: *wp.To})
	}
	return windows, nil
}

type quoteRequest struct {
	Parts         []quotePart `json:"parts"`
	PaymentMethod string      `json:"paymentMethod"`
	PromoCode     string      `json:"promoCode,omitempty"`
}

type quotePart struct {
	ServiceID  string `json:"serviceId"`
	ProviderID string `json:"providerId,omitempty"`
	From       int64  `json:"from"`
	To         int64  `json:"to"`
}

type quotePayload struct {
	Currency     string            `json:"currency"`
	Subtotal     int64             `json:"subtotal"`
	Discount     int64             `json:"discount"`
	Tax          int64             `json:"tax"`
	Total        int64             `json:"total"`
	ChargeAmount int64             `json:"chargeAmount"`
	LineItems    []lineItemPayload `json:"lineItems"`
	PromoCode    *promoCodePayload `json:"promoCode"`
}

type lineItemPayload struct {
	ItemType  string `json:"itemType"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Total     int64  `json:"total"`
}

type promoCodePayload struct {
	ID            string  `json:"id"`
	Code          string  `json:"code"`
	DiscountType  string  `json:"discountType"`
	DiscountValue float64 `json:"discountValue"`
}

func (q quotePayload) toModel() *models.Quote {
	quote := &models.Quote{
		Currency:     q.Currency,
		Subtotal:     q.Subtotal,
		Discount:     q.Discount,
		Tax:          q.Tax,
		Total:        q.Total,
		ChargeAmount: q.ChargeAmount,
	}
	for _, li := range q.LineItems {
		quote.LineItems = append(quote.LineItems, models.QuoteLineItem{
			ItemType:  li.ItemType,
			ID:        li.ID,
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
			Total:     li.Total,
		})
	}
	if q.PromoCode != nil {
		quote.PromoCode = &models.PromoCodeValidation{
			ID:            q.PromoCode.ID,
			Code:          q.PromoCode.Code,
			DiscountType:  q.PromoCode.DiscountType,
			DiscountValue: q.PromoCode.DiscountValue,
		}
	}
	return quote
}

type checkoutRequest struct {
	Parts         []quotePart    `json:"parts"`
	PromoCodeID   string         `json:"promoCodeId,omitempty"`
	PaymentMethod string         `json:"paymentMethod"`
	Contact       contactPayload `json:"contact"`
}

type contactPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type checkoutPayload struct {
	ReservationID string `json:"reservationId"`
	ClientSecret  string `json:"clientSecret"`
}

type verifyRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code,omitempty"`
}

type verifyPayload struct {
	Verified bool `json:"verified"`
}

type rejectionEnvelope struct {
	Error rejectionPayload `json:"error"`
}

type rejectionPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toQuoteParts(parts []models.CartPart) []quotePart {
	out := make([]quotePart, 0, len(parts))
	for _, p := range parts {
		out = append(out, quotePart{
			ServiceID:  p.ServiceID,
			ProviderID: p.ProviderID,
			From:       p.From,
			To:         p.To,
		})
	}
	return out
}
