package reservation

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"bookify/models"

	"github.com/google/uuid"

	"go.uber.org/zap"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)

const quoteTimeout = 15 * time.Second

// Coordinator owns the cart contents and the pricing side of a session:
// quote fetching with latest-wins semantics, promo code application, phone
// verification, and checkout. It persists the cart through a CartStore so
// a returning guest gets their parts back.
type Coordinator struct {
	mu sync.Mutex

	logger    *zap.Logger
	quotes    QuoteService
	checkouts CheckoutService
	phones    PhoneVerifier
	store     CartStore
	storeKey  string
	events    emitter

	parts         []models.CartPart
	quote         *models.Quote
	quoteError    string
	fetchingQuote bool
	quoteGen      uint64
	quoteDone     func() // test hook, invoked after an async quote settles

	paymentMethod string
	promoCode     string
	contact       models.ContactInfo
	phoneVerified bool
}

// NewCoordinator wires the pricing backend, checkout backend, phone
// verifier and cart persistence behind one coordinator. storeKey
// identifies the guest's persisted cart; empty disables persistence.
func NewCoordinator(quotes QuoteService, checkouts CheckoutService, phones PhoneVerifier, store CartStore, storeKey string, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		logger:        logger,
		quotes:        quotes,
		checkouts:     checkouts,
		phones:        phones,
		store:         store,
		storeKey:      storeKey,
		paymentMethod: models.PaymentMethodCash,
	}
}

// Subscribe registers a change listener.
func (c *Coordinator) Subscribe(fn Listener) {
	c.events.subscribe(fn)
}

// Restore loads the persisted cart, if any, and refreshes the quote.
func (c *Coordinator) Restore(ctx context.Context) {
	if c.store == nil || c.storeKey == "" {
		return
	}
	parts, err := c.store.Load(ctx, c.storeKey)
	if err != nil {
		c.logger.Warn("cart restore failed", zap.String("key", c.storeKey), zap.Error(err))
		return
	}
	if len(parts) == 0 {
		return
	}
	c.mu.Lock()
	c.parts = parts
	c.mu.Unlock()
	c.events.emit(EventCart)
	c.FetchQuote(ctx)
}

// Add appends a booked part, persists the cart and refreshes the quote.
func (c *Coordinator) Add(ctx context.Context, part models.CartPart) {
	c.mu.Lock()
	c.parts = append(c.parts, part)
	c.persistLocked(ctx)
	c.mu.Unlock()
	c.events.emit(EventCart)
	c.FetchQuote(ctx)
}

// Remove deletes a part by id, persists the cart and refreshes the quote.
// An unknown id is a no-op.
func (c *Coordinator) Remove(ctx context.Context, partID string) {
	c.mu.Lock()
	idx := -1
	for i, p := range c.parts {
		if p.ID == partID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	c.parts = append(c.parts[:idx], c.parts[idx+1:]...)
	c.persistLocked(ctx)
	c.mu.Unlock()
	c.events.emit(EventCart)
	c.FetchQuote(ctx)
}

func (c *Coordinator) persistLocked(ctx context.Context) {
	if c.store == nil || c.storeKey == "" {
		return
	}
	if err := c.store.Save(ctx, c.storeKey, c.parts); err != nil {
		c.logger.Warn("cart persist failed", zap.String("key", c.storeKey), zap.Error(err))
	}
}

// Parts returns a copy of the cart contents.
func (c *Coordinator) Parts() []models.CartPart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartPart(nil), c.parts...)
}

// Quote returns the last successfully fetched quote, nil if none.
func (c *Coordinator) Quote() *models.Quote {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quote == nil {
		return nil
	}
	q := *c.quote
	return &q
}

// QuoteError returns the presentation message of the last failed quote
// fetch, empty when the last fetch succeeded.
func (c *Coordinator) QuoteError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quoteError
}

// FetchingQuote reports whether a quote fetch is in flight.
func (c *Coordinator) FetchingQuote() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchingQuote
}

// PaymentMethod returns the currently selected payment method.
func (c *Coordinator) PaymentMethod() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paymentMethod
}

// SetPaymentMethod switches the payment method and refreshes the quote,
// since pricing (e.g. the charge amount) depends on it.
func (c *Coordinator) SetPaymentMethod(ctx context.Context, method string) error {
	switch method {
	case models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodFree:
	default:
		return NewValidationError("unknown payment method %q", method)
	}
	c.mu.Lock()
	c.paymentMethod = method
	c.mu.Unlock()
	c.FetchQuote(ctx)
	return nil
}

// ApplyPromoCode records the promo code and refreshes the quote; validity
// is decided by the pricing backend and surfaces through QuoteError.
func (c *Coordinator) ApplyPromoCode(ctx context.Context, code string) {
	c.mu.Lock()
	c.promoCode = code
	c.mu.Unlock()
	c.FetchQuote(ctx)
}

// RemovePromoCode drops the promo code and refreshes the quote.
func (c *Coordinator) RemovePromoCode(ctx context.Context) {
	c.mu.Lock()
	c.promoCode = ""
	c.mu.Unlock()
	c.FetchQuote(ctx)
}

// FetchQuote asks the pricing backend for a quote over the current cart.
// Concurrent calls race freely; the generation token ensures only the
// newest request's outcome lands in state. An empty cart short-circuits to
// no quote and no error.
func (c *Coordinator) FetchQuote(ctx context.Context) {
	c.mu.Lock()
	if len(c.parts) == 0 {
		c.quote = nil
		c.quoteError = ""
		c.fetchingQuote = false
		c.quoteGen++ // invalidate any in-flight fetch
		done := c.quoteDone
		c.mu.Unlock()
		c.events.emit(EventQuote)
		if done != nil {
			done()
		}
		return
	}
	c.quoteGen++
	gen := c.quoteGen
	c.fetchingQuote = true
	parts := append([]models.CartPart(nil), c.parts...)
	method := c.paymentMethod
	promo := c.promoCode
	c.mu.Unlock()
	c.events.emit(EventQuote)

	go c.runQuoteFetch(gen, parts, method, promo)
}

// runQuoteFetch runs detached from the triggering request so an early
// handler return does not cancel the fetch.
func (c *Coordinator) runQuoteFetch(gen uint64, parts []models.CartPart, method, promo string) {
	ctx, cancel := context.WithTimeout(context.Background(), quoteTimeout)
	defer cancel()
	quote, err := c.quotes.Quote(ctx, parts, method, promo)

	c.mu.Lock()
	if gen != c.quoteGen {
		c.mu.Unlock()
		return // a newer fetch owns the state now
	}
	c.fetchingQuote = false
	if err != nil {
		c.quote = nil
		c.quoteError = quoteErrorMessage(err)
		c.logger.Warn("quote fetch failed", zap.Error(err))
	} else {
		c.quote = quote
		c.quoteError = ""
	}
	done := c.quoteDone
	c.mu.Unlock()
	c.events.emit(EventQuote)
	if done != nil {
		done()
	}
}

// quoteErrorMessage turns a quote failure into the message shown to the
// visitor. Backend rejections map through the promo code table; transport
// failures carry their own message when present.
func quoteErrorMessage(err error) string {
	var policy *PolicyError
	if errors.As(err, &policy) {
		return MapQuoteError(policy.Code, policy.Message)
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return MapQuoteError(notFound.Code, notFound.Message)
	}
	var transport *TransportError
	if errors.As(err, &transport) && transport.Message != "" {
		return transport.Message
	}
	return MapQuoteError("", "")
}

// AddPhoneNumber stores the contact phone number and triggers delivery of
// a verification code to it.
func (c *Coordinator) AddPhoneNumber(ctx context.Context, phone string) error {
	if !phonePattern.MatchString(phone) {
		return NewValidationError("invalid phone number")
	}
	if err := c.phones.SendCode(ctx, phone); err != nil {
		return err
	}
	c.mu.Lock()
	c.contact.PhoneNumber = phone
	c.phoneVerified = false
	c.mu.Unlock()
	return nil
}

// ConfirmPhoneNumber checks the 4-digit verification code the visitor
// received and marks the phone verified on success.
func (c *Coordinator) ConfirmPhoneNumber(ctx context.Context, code string) error {
	if len(code) != 4 {
		return NewValidationError("verification code must be 4 digits")
	}
	c.mu.Lock()
	phone := c.contact.PhoneNumber
	c.mu.Unlock()
	if phone == "" {
		return NewValidationError("no phone number on file")
	}
	ok, err := c.phones.ConfirmCode(ctx, phone, code)
	if err != nil {
		return err
	}
	if !ok {
		return NewValidationError("incorrect verification code")
	}
	c.mu.Lock()
	c.phoneVerified = true
	c.mu.Unlock()
	return nil
}

// PhoneVerified reports whether the contact phone passed verification.
func (c *Coordinator) PhoneVerified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phoneVerified
}

// SetContact records the visitor's name and email for checkout.
func (c *Coordinator) SetContact(name, email string) {
	c.mu.Lock()
	c.contact.Name = name
	c.contact.Email = email
	c.mu.Unlock()
}

// Checkout submits the cart for reservation. The promo code travels as the
// validated promo id from the last quote, never the raw code, so checkout
// cannot apply a promo the pricing backend did not accept. On success the
// cart and quote are cleared and the persisted copy deleted.
func (c *Coordinator) Checkout(ctx context.Context) (*models.CheckoutResult, error) {
	c.mu.Lock()
	if len(c.parts) == 0 {
		c.mu.Unlock()
		return nil, NewValidationError("cart is empty")
	}
	if !c.phoneVerified {
		c.mu.Unlock()
		return nil, NewValidationError("phone number must be verified before checkout")
	}
	parts := append([]models.CartPart(nil), c.parts...)
	method := c.paymentMethod
	contact := c.contact
	promoID := ""
	if c.quote != nil && c.quote.PromoCode != nil {
		promoID = c.quote.PromoCode.ID
	}
	c.mu.Unlock()

	result, err := c.checkouts.Checkout(ctx, parts, promoID, method, contact)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.parts = nil
	c.quote = nil
	c.quoteError = ""
	c.promoCode = ""
	c.quoteGen++
	if c.store != nil && c.storeKey != "" {
		if derr := c.store.Delete(ctx, c.storeKey); derr != nil {
			c.logger.Warn("cart delete failed", zap.String("key", c.storeKey), zap.Error(derr))
		}
	}
	c.mu.Unlock()
	c.events.emit(EventCart)
	c.events.emit(EventQuote)
	return result, nil
}

func newPartID() string {
	return uuid.NewString()
}
