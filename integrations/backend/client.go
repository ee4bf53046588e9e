package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"bookify/models"
	"bookify/services/reservation"

	"go.uber.org/zap"
)

// Client talks to the booking backend over HTTP. It serves as the
// provider source, pricing, checkout and phone verification backend for
// the reservation service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a backend client rooted at baseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ProvidersForRange fetches the providers able to serve a service between
// two unix timestamps, with their working hours and booking timelines.
func (c *Client) ProvidersForRange(ctx context.Context, serviceID string, from, to int64) ([]models.Provider, error) {
	endpoint := fmt.Sprintf("%s/api/services/%s/providers?from=%d&to=%d",
		c.baseURL, url.PathEscape(serviceID), from, to)

	var payloads []providerPayload
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &payloads); err != nil {
		return nil, err
	}

	providers := make([]models.Provider, 0, len(payloads))
	for _, p := range payloads {
		provider, err := p.toModel()
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}
	return providers, nil
}

// Quote prices the given cart parts, applying the promo code when set.
func (c *Client) Quote(ctx context.Context, parts []models.CartPart, paymentMethod, promoCode string) (*models.Quote, error) {
	req := quoteRequest{
		Parts:         toQuoteParts(parts),
		PaymentMethod: paymentMethod,
		PromoCode:     promoCode,
	}
	var payload quotePayload
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/quotes", req, &payload); err != nil {
		return nil, err
	}
	return payload.toModel(), nil
}

// Checkout submits the cart for reservation. promoCodeID is the id of a
// promo validation from a prior quote, never a raw code.
func (c *Client) Checkout(ctx context.Context, parts []models.CartPart, promoCodeID, paymentMethod string, contact models.ContactInfo) (*models.CheckoutResult, error) {
	req := checkoutRequest{
		Parts:         toQuoteParts(parts),
		PromoCodeID:   promoCodeID,
		PaymentMethod: paymentMethod,
		Contact: contactPayload{
			Name:        contact.Name,
			Email:       contact.Email,
			PhoneNumber: contact.PhoneNumber,
		},
	}
	var payload checkoutPayload
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/checkout", req, &payload); err != nil {
		return nil, err
	}
	return &models.CheckoutResult{
		ReservationID: payload.ReservationID,
		ClientSecret:  payload.ClientSecret,
	}, nil
}

// SendCode asks the backend to deliver a verification code to the phone.
func (c *Client) SendCode(ctx context.Context, phone string) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/phone/send-code", verifyRequest{PhoneNumber: phone}, nil)
}

// ConfirmCode checks a verification code against the backend.
func (c *Client) ConfirmCode(ctx context.Context, phone, code string) (bool, error) {
	var payload verifyPayload
	err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/phone/confirm-code",
		verifyRequest{PhoneNumber: phone, Code: code}, &payload)
	if err != nil {
		return false, err
	}
	return payload.Verified, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &reservation.TransportError{Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &reservation.TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return &reservation.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeRejection(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &reservation.TransportError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
