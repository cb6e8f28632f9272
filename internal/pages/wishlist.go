package pages

import (
	"context"

	"notsteam/internal/api"
	"notsteam/internal/session"
	"notsteam/pkg/domain"
)

// Wishlist drives the wishlist view.
type Wishlist struct {
	api  *api.Client
	sess *session.Context
}

// NewWishlist constructs the wishlist controller.
func NewWishlist(client *api.Client, sess *session.Context) *Wishlist {
	return &Wishlist{api: client, sess: sess}
}

// Load lists the wishlist.
func (w *Wishlist) Load(ctx context.Context) ([]domain.WishlistItem, error) {
	token, err := requireToken(w.sess)
	if err != nil {
		return nil, err
	}
	return w.api.Wishlist(ctx, token)
}

// Remove drops a game from the wishlist.
func (w *Wishlist) Remove(ctx context.Context, gameID int) error {
	token, err := requireToken(w.sess)
	if err != nil {
		return err
	}
	return w.api.RemoveFromWishlist(ctx, token, gameID)
}
