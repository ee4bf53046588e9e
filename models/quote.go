package models

// QuoteLineItem is one priced line of a quote, amounts in minor units.
type QuoteLineItem struct {
	ItemType  string `json:"itemType"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Total     int64  `json:"total"`
}

// PromoCodeValidation is the backend-validated promo code attached to a
// quote. The ID, not the raw code, is what checkout submits.
type PromoCodeValidation struct {
	ID            string  `json:"id"`
	Code          string  `json:"code"`
	DiscountType  string  `json:"discountType"`
	DiscountValue float64 `json:"discountValue"`
}

// Quote is the externally computed price breakdown for the current cart.
// It is owned by the pricing collaborator and replaced wholesale on each
// fetch, never mutated field-by-field.
type Quote struct {
	Currency     string               `json:"currency"`
	Subtotal     int64                `json:"subtotal"`
	Discount     int64                `json:"discount"`
	Tax          int64                `json:"tax"`
	Total        int64                `json:"total"`
	ChargeAmount int64                `json:"chargeAmount"`
	LineItems    []QuoteLineItem      `json:"lineItems"`
	PromoCode    *PromoCodeValidation `json:"promoCode,omitempty"`
}

// CheckoutResult is the backend's answer to a checkout submission.
type CheckoutResult struct {
	ReservationID string `json:"reservationId"`
	ClientSecret  string `json:"clientSecret,omitempty"`
}

// Payment method identifiers accepted at quote/checkout.
const (
	PaymentMethodCash = "CASH"
	PaymentMethodCard = "CREDIT_CARD"
	PaymentMethodFree = "FREE"
)
