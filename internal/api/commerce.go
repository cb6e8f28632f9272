package api

import (
	"context"
	"net/http"

	"notsteam/pkg/domain"
)

// PaymentIntent is the backend's handle on a pending charge. ClientSecret
// is relayed to the payment provider, never logged or persisted.
type PaymentIntent struct {
	ClientSecret string  `json:"client_secret"`
	Amount       float64 `json:"amount"`
}

type cartMutationResponse struct {
	Message string `json:"message"`
	Cart    []int  `json:"cart"`
}

type confirmResponse struct {
	Message string `json:"message"`
	OrderID int    `json:"order_id"`
}

// Cart fetches the server-side cart as full game records.
func (c *Client) Cart(ctx context.Context, token string) ([]domain.Game, error) {
	var games []domain.Game
	if err := c.doJSON(ctx, http.MethodGet, "/cart/", token, nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// AddToCart appends a game server-side and returns the resulting cart ids.
// The backend keeps the cart deduplicated; adding a game twice is not an
// error.
func (c *Client) AddToCart(ctx context.Context, token string, gameID int) ([]int, error) {
	payload := map[string]int{"game_id": gameID}
	var resp cartMutationResponse
	if err := c.doJSON(ctx, http.MethodPost, "/cart/add/", token, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Cart, nil
}

// ClearCart empties the server-side cart.
func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodDelete, "/cart/clear/", token, nil, nil)
}

// CreatePaymentIntent asks the backend to price the given games and open
// a charge with the payment provider.
func (c *Client) CreatePaymentIntent(ctx context.Context, token string, gameIDs []int) (PaymentIntent, error) {
	payload := map[string][]int{"game_ids": gameIDs}
	var intent PaymentIntent
	if err := c.doJSON(ctx, http.MethodPost, "/payment/create-intent/", token, payload, &intent); err != nil {
		return PaymentIntent{}, err
	}
	return intent, nil
}

// ConfirmPayment reports a captured charge so the backend can record the
// order and grant library access. Returns the created order id.
func (c *Client) ConfirmPayment(ctx context.Context, token, intentID string, gameIDs []int) (int, error) {
	payload := map[string]any{
		"payment_intent_id": intentID,
		"game_ids":          gameIDs,
	}
	var resp confirmResponse
	if err := c.doJSON(ctx, http.MethodPost, "/payment/confirm/", token, payload, &resp); err != nil {
		return 0, err
	}
	return resp.OrderID, nil
}

// OrderHistory lists the user's past orders, newest first.
func (c *Client) OrderHistory(ctx context.Context, token string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.doJSON(ctx, http.MethodGet, "/payment/orders/", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
