package pages

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"notsteam/internal/api"
	"notsteam/internal/payment"
	"notsteam/internal/session"
	"notsteam/pkg/domain"
)

// ErrEmptyCart is returned when Pay is invoked with nothing to buy.
var ErrEmptyCart = errors.New("cart is empty")

// ErrPaymentDeclined is returned when the provider did not capture the
// charge; no order was created.
var ErrPaymentDeclined = errors.New("payment was not completed")

// Checkout drives the purchase flow: backend opens the charge, the
// provider captures it, the backend records the order, then the cart is
// cleared.
type Checkout struct {
	api      *api.Client
	sess     *session.Context
	provider payment.Provider
	log      *slog.Logger
}

// NewCheckout constructs the checkout controller.
func NewCheckout(client *api.Client, sess *session.Context, provider payment.Provider, log *slog.Logger) *Checkout {
	if log == nil {
		log = slog.Default()
	}
	return &Checkout{api: client, sess: sess, provider: provider, log: log}
}

// Summary is the order review shown before payment.
type Summary struct {
	Items []domain.Game
	Total float64
}

// Summarize totals the cart at discounted prices.
func (c *Checkout) Summarize() Summary {
	items := c.sess.Cart()
	var total float64
	for _, g := range items {
		if price, err := strconv.ParseFloat(g.DiscountedPrice, 64); err == nil {
			total += price
		}
	}
	return Summary{Items: items, Total: total}
}

// Receipt reports a completed purchase.
type Receipt struct {
	OrderID  int
	IntentID string
	Amount   float64
}

// Pay runs the full purchase flow for the current cart. The cart is only
// cleared, locally and server-side, after the backend has recorded the
// order; a declined or failed payment leaves it untouched.
func (c *Checkout) Pay(ctx context.Context, card payment.Card) (Receipt, error) {
	token, err := requireToken(c.sess)
	if err != nil {
		return Receipt{}, err
	}
	gameIDs := c.sess.CartIDs()
	if len(gameIDs) == 0 {
		return Receipt{}, ErrEmptyCart
	}

	intent, err := c.api.CreatePaymentIntent(ctx, token, gameIDs)
	if err != nil {
		return Receipt{}, err
	}
	conf, err := c.provider.ConfirmCard(ctx, intent.ClientSecret, card)
	if err != nil {
		return Receipt{}, err
	}
	if !conf.Succeeded() {
		return Receipt{}, ErrPaymentDeclined
	}
	orderID, err := c.api.ConfirmPayment(ctx, token, conf.IntentID, gameIDs)
	if err != nil {
		return Receipt{}, err
	}

	if err := c.api.ClearCart(ctx, token); err != nil {
		// The purchase is complete; the stale cart self-heals on the
		// next population.
		c.log.Warn("cart clear after checkout failed", "err", err)
	} else {
		c.sess.ClearCart()
	}
	return Receipt{OrderID: orderID, IntentID: conf.IntentID, Amount: intent.Amount}, nil
}

// Orders lists past orders, newest first.
func (c *Checkout) Orders(ctx context.Context) ([]domain.Order, error) {
	token, err := requireToken(c.sess)
	if err != nil {
		return nil, err
	}
	return c.api.OrderHistory(ctx, token)
}
