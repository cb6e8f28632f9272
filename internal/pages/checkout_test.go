package pages

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"notsteam/internal/api"
	"notsteam/internal/payment"
	"notsteam/internal/session"
	"notsteam/pkg/domain"
)

type fakeProvider struct {
	calls   atomic.Int32
	status  string
	err     error
	lastKey string
}

func (p *fakeProvider) ConfirmCard(_ context.Context, clientSecret string, _ payment.Card) (payment.Confirmation, error) {
	p.calls.Add(1)
	p.lastKey = clientSecret
	if p.err != nil {
		return payment.Confirmation{}, p.err
	}
	return payment.Confirmation{
		IntentID: payment.IntentIDFromSecret(clientSecret),
		Status:   p.status,
	}, nil
}

type checkoutBackend struct {
	intentCalls  atomic.Int32
	confirmCalls atomic.Int32
	clearCalls   atomic.Int32
	failConfirm  bool
	failClear    bool
}

func (b *checkoutBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "tok", "user": domain.User{ID: 1, Username: "alice"},
		})
	})
	mux.HandleFunc("/cart/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.Game{
			{ID: 3, Title: "Quake", DiscountedPrice: "9.99"},
			{ID: 7, Title: "Doom", DiscountedPrice: "19.99"},
		})
	})
	mux.HandleFunc("/payment/create-intent/", func(w http.ResponseWriter, r *http.Request) {
		b.intentCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"client_secret": "pi_123_secret_xyz",
			"amount":        29.98,
		})
	})
	mux.HandleFunc("/payment/confirm/", func(w http.ResponseWriter, r *http.Request) {
		b.confirmCalls.Add(1)
		if b.failConfirm {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Payment not completed"})
			return
		}
		var payload struct {
			PaymentIntentID string `json:"payment_intent_id"`
			GameIDs         []int  `json:"game_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.PaymentIntentID != "pi_123" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown intent"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Payment successful", "order_id": 42})
	})
	mux.HandleFunc("/cart/clear/", func(w http.ResponseWriter, r *http.Request) {
		b.clearCalls.Add(1)
		if b.failClear {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Cart cleared"})
	})
	return mux
}

func newCheckout(t *testing.T, backend *checkoutBackend, provider payment.Provider) (*Checkout, *session.Context) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL)
	tokens, err := session.NewTokenStore(t.TempDir())
	if err != nil {
		t.Fatalf("token store: %v", err)
	}
	sess := session.New(client, tokens, nil)
	if res := sess.Login(context.Background(), "alice", "pw"); !res.OK {
		t.Fatalf("login: %+v", res)
	}
	return NewCheckout(client, sess, provider, nil), sess
}

func TestPayRunsFullFlowAndClearsCart(t *testing.T) {
	backend := &checkoutBackend{}
	provider := &fakeProvider{status: "succeeded"}
	checkout, sess := newCheckout(t, backend, provider)

	receipt, err := checkout.Pay(context.Background(), payment.Card{Number: "4242424242424242"})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if receipt.OrderID != 42 {
		t.Fatalf("order id = %d, want 42", receipt.OrderID)
	}
	if receipt.Amount != 29.98 {
		t.Fatalf("amount = %v", receipt.Amount)
	}
	if provider.lastKey != "pi_123_secret_xyz" {
		t.Fatalf("provider got secret %q", provider.lastKey)
	}
	if got := backend.confirmCalls.Load(); got != 1 {
		t.Fatalf("confirm calls = %d", got)
	}
	if len(sess.Cart()) != 0 {
		t.Fatal("cart must be empty after checkout")
	}
}

func TestPayDeclinedLeavesCartUntouched(t *testing.T) {
	backend := &checkoutBackend{}
	provider := &fakeProvider{status: "requires_payment_method"}
	checkout, sess := newCheckout(t, backend, provider)

	_, err := checkout.Pay(context.Background(), payment.Card{})
	if !errors.Is(err, ErrPaymentDeclined) {
		t.Fatalf("err = %v, want ErrPaymentDeclined", err)
	}
	if got := backend.confirmCalls.Load(); got != 0 {
		t.Fatalf("backend confirm must not run after decline, got %d", got)
	}
	if len(sess.Cart()) != 2 {
		t.Fatal("cart must be untouched after a declined payment")
	}
}

func TestPayProviderErrorLeavesCartUntouched(t *testing.T) {
	backend := &checkoutBackend{}
	provider := &fakeProvider{err: errors.New("network down")}
	checkout, sess := newCheckout(t, backend, provider)

	if _, err := checkout.Pay(context.Background(), payment.Card{}); err == nil {
		t.Fatal("expected error")
	}
	if len(sess.Cart()) != 2 {
		t.Fatal("cart must be untouched after a provider error")
	}
}

func TestPayFailedClearKeepsLocalCart(t *testing.T) {
	backend := &checkoutBackend{failClear: true}
	provider := &fakeProvider{status: "succeeded"}
	checkout, sess := newCheckout(t, backend, provider)

	receipt, err := checkout.Pay(context.Background(), payment.Card{})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if receipt.OrderID != 42 {
		t.Fatalf("order id = %d", receipt.OrderID)
	}
	// The clear call failed, so the local cart is not mutated.
	if len(sess.Cart()) != 2 {
		t.Fatal("failed clear must not mutate the local cart")
	}
}

func TestPayWithEmptyCart(t *testing.T) {
	backend := &checkoutBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL)
	tokens, err := session.NewTokenStore(t.TempDir())
	if err != nil {
		t.Fatalf("token store: %v", err)
	}
	sess := session.New(client, tokens, nil)
	if res := sess.Login(context.Background(), "alice", "pw"); !res.OK {
		t.Fatalf("login: %+v", res)
	}
	sess.ClearCart()

	checkout := NewCheckout(client, sess, &fakeProvider{status: "succeeded"}, nil)
	if _, err := checkout.Pay(context.Background(), payment.Card{}); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
	if got := backend.intentCalls.Load(); got != 0 {
		t.Fatalf("no intent may be created for an empty cart, got %d", got)
	}
}

func TestPayRequiresLogin(t *testing.T) {
	backend := &checkoutBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL)
	tokens, err := session.NewTokenStore(t.TempDir())
	if err != nil {
		t.Fatalf("token store: %v", err)
	}
	sess := session.New(client, tokens, nil)

	checkout := NewCheckout(client, sess, &fakeProvider{status: "succeeded"}, nil)
	if _, err := checkout.Pay(context.Background(), payment.Card{}); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("err = %v, want ErrLoginRequired", err)
	}
}

func TestSummarizeTotalsDiscountedPrices(t *testing.T) {
	backend := &checkoutBackend{}
	checkout, _ := newCheckout(t, backend, &fakeProvider{status: "succeeded"})

	summary := checkout.Summarize()
	if len(summary.Items) != 2 {
		t.Fatalf("items = %d", len(summary.Items))
	}
	if summary.Total != 29.98 {
		t.Fatalf("total = %v, want 29.98", summary.Total)
	}
}
