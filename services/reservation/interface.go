package reservation

import (
	"context"

	"bookify/models"
)

// ProviderSource fetches the providers able to serve a service within a
// time range, together with their working-time config, timeline and
// concurrency limit.
type ProviderSource interface {
	ProvidersForRange(ctx context.Context, serviceID string, from, to int64) ([]models.Provider, error)
}

// QuoteService computes a price breakdown for the cart. Structured
// rejections surface as *PolicyError / *NotFoundError, network failures as
// *TransportError.
type QuoteService interface {
	Quote(ctx context.Context, parts []models.CartPart, paymentMethod, promoCode string) (*models.Quote, error)
}

// CheckoutService submits the cart for reservation and payment setup.
type CheckoutService interface {
	Checkout(ctx context.Context, parts []models.CartPart, promoCodeID, paymentMethod string, contact models.ContactInfo) (*models.CheckoutResult, error)
}

// PhoneVerifier dispatches and confirms phone verification codes.
type PhoneVerifier interface {
	SendCode(ctx context.Context, phoneNumber string) error
	ConfirmCode(ctx context.Context, phoneNumber, code string) (bool, error)
}

// CartStore persists cart snapshots so a returning guest finds their cart
// intact. Persistence is a side effect injected into the coordinator, not
// embedded in the state itself.
type CartStore interface {
	Save(ctx context.Context, key string, parts []models.CartPart) error
	Load(ctx context.Context, key string) ([]models.CartPart, error)
	Delete(ctx context.Context, key string) error
}
