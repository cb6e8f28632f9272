// Package payment is the thin boundary to the card-payment provider. The
// backend opens the charge and issues a client secret; this package only
// relays card details for capture and reports the outcome.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Card holds the details collected for a card payment. Never logged.
type Card struct {
	Number   string `json:"number"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
	CVC      string `json:"cvc"`
}

// Confirmation is the provider's verdict on a capture attempt.
type Confirmation struct {
	IntentID string `json:"id"`
	Status   string `json:"status"`
}

// Succeeded reports whether the charge was captured.
func (c Confirmation) Succeeded() bool {
	return c.Status == "succeeded"
}

// Provider captures a card payment against a backend-issued client
// secret.
type Provider interface {
	ConfirmCard(ctx context.Context, clientSecret string, card Card) (Confirmation, error)
}

// IntentIDFromSecret extracts the payment-intent id from a client secret
// of the form "<intent-id>_secret_<nonce>". Secrets in any other form
// are returned whole.
func IntentIDFromSecret(clientSecret string) string {
	if id, _, found := strings.Cut(clientSecret, "_secret_"); found {
		return id
	}
	return clientSecret
}

// HTTPProvider talks to the provider's confirmation endpoint.
type HTTPProvider struct {
	baseURL        string
	publishableKey string
	httpClient     *http.Client
}

// NewHTTPProvider constructs a provider client. publishableKey is the
// client-side key the provider hands out for embeddable checkout.
func NewHTTPProvider(baseURL, publishableKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL:        strings.TrimRight(baseURL, "/"),
		publishableKey: publishableKey,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// ConfirmCard submits the card against the client secret and returns the
// provider's confirmation.
func (p *HTTPProvider) ConfirmCard(ctx context.Context, clientSecret string, card Card) (Confirmation, error) {
	intentID := IntentIDFromSecret(clientSecret)
	payload := map[string]any{
		"client_secret": clientSecret,
		"card":          card,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Confirmation{}, err
	}
	url := fmt.Sprintf("%s/v1/payment_intents/%s/confirm", p.baseURL, intentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return Confirmation{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.publishableKey)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Confirmation{}, fmt.Errorf("confirm payment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &errResp)
		msg := errResp.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return Confirmation{}, fmt.Errorf("payment provider: %s", msg)
	}
	var conf Confirmation
	if err := json.NewDecoder(resp.Body).Decode(&conf); err != nil {
		return Confirmation{}, fmt.Errorf("decode confirmation: %w", err)
	}
	if conf.IntentID == "" {
		conf.IntentID = intentID
	}
	return conf, nil
}
