package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"bookify/models"

	"go.uber.org/zap"
)

// stubSource answers every provider fetch immediately with a fixed list.
type stubSource struct {
	mu        sync.Mutex
	providers []models.Provider
	err       error
	calls     int
}

func (s *stubSource) ProvidersForRange(_ context.Context, _ string, _, _ int64) ([]models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.Provider(nil), s.providers...), nil
}

// blockingSource parks every fetch until the test releases it, so response
// ordering can be forced.
type blockingSource struct {
	mu      sync.Mutex
	pending []chan []models.Provider
	started chan struct{}
}

func newBlockingSource() *blockingSource {
	return &blockingSource{started: make(chan struct{}, 16)}
}

func (b *blockingSource) ProvidersForRange(_ context.Context, _ string, _, _ int64) ([]models.Provider, error) {
	ch := make(chan []models.Provider)
	b.mu.Lock()
	b.pending = append(b.pending, ch)
	b.mu.Unlock()
	b.started <- struct{}{}
	return <-ch, nil
}

func (b *blockingSource) release(i int, providers []models.Provider) {
	b.mu.Lock()
	ch := b.pending[i]
	b.mu.Unlock()
	ch <- providers
}

type fakeQuoteSvc struct {
	mu sync.Mutex
	fn func(parts []models.CartPart, paymentMethod, promoCode string) (*models.Quote, error)
}

func (f *fakeQuoteSvc) set(fn func(parts []models.CartPart, paymentMethod, promoCode string) (*models.Quote, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
}

func (f *fakeQuoteSvc) Quote(_ context.Context, parts []models.CartPart, paymentMethod, promoCode string) (*models.Quote, error) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return &models.Quote{Currency: "USD"}, nil
	}
	return fn(parts, paymentMethod, promoCode)
}

type fakeCheckoutSvc struct {
	mu            sync.Mutex
	err           error
	gotPromoID    string
	gotMethod     string
	gotParts      []models.CartPart
	gotContact    models.ContactInfo
	reservationID string
}

func (f *fakeCheckoutSvc) Checkout(_ context.Context, parts []models.CartPart, promoCodeID, paymentMethod string, contact models.ContactInfo) (*models.CheckoutResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.gotParts = parts
	f.gotPromoID = promoCodeID
	f.gotMethod = paymentMethod
	f.gotContact = contact
	id := f.reservationID
	if id == "" {
		id = "res-1"
	}
	return &models.CheckoutResult{ReservationID: id}, nil
}

type fakePhoneVerifier struct {
	mu       sync.Mutex
	sendErr  error
	sentTo   []string
	accepted string
}

func (f *fakePhoneVerifier) SendCode(_ context.Context, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentTo = append(f.sentTo, phone)
	return nil
}

func (f *fakePhoneVerifier) ConfirmCode(_ context.Context, _, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	accepted := f.accepted
	if accepted == "" {
		accepted = "1234"
	}
	return code == accepted, nil
}

func testCoordinator(t *testing.T, quotes *fakeQuoteSvc) (*Coordinator, chan struct{}) {
	t.Helper()
	if quotes == nil {
		quotes = &fakeQuoteSvc{}
	}
	c := NewCoordinator(quotes, &fakeCheckoutSvc{}, &fakePhoneVerifier{}, NewMemoryCartStore(), "guest-1", zap.NewNop())
	done := make(chan struct{}, 16)
	c.quoteDone = func() { done <- struct{}{} }
	return c, done
}

func waitSignal(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for async operation")
	}
}
