package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"notsteam/pkg/domain"
)

// ReviewInput is the create/update payload for a game review.
type ReviewInput struct {
	GameID      int                 `json:"game_id"`
	Rating      domain.ReviewRating `json:"rating"`
	ReviewText  string              `json:"review_text"`
	HoursPlayed string              `json:"hours_played"`
}

// Games lists the full catalog.
func (c *Client) Games(ctx context.Context) ([]domain.Game, error) {
	var games []domain.Game
	if err := c.doJSON(ctx, http.MethodGet, "/games/", "", nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// FeaturedGames lists discounted games, deepest discount first.
func (c *Client) FeaturedGames(ctx context.Context) ([]domain.Game, error) {
	var games []domain.Game
	if err := c.doJSON(ctx, http.MethodGet, "/games/featured/", "", nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// GameByID fetches a single game by numeric id or slug.
func (c *Client) GameByID(ctx context.Context, slugOrID string) (domain.Game, error) {
	var game domain.Game
	path := fmt.Sprintf("/games/%s/", url.PathEscape(slugOrID))
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &game); err != nil {
		return domain.Game{}, err
	}
	return game, nil
}

// SearchGames searches titles, descriptions and tags.
func (c *Client) SearchGames(ctx context.Context, query string) ([]domain.Game, error) {
	var games []domain.Game
	path := "/games/search/?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// Wishlist lists the current user's wishlist.
func (c *Client) Wishlist(ctx context.Context, token string) ([]domain.WishlistItem, error) {
	var items []domain.WishlistItem
	if err := c.doJSON(ctx, http.MethodGet, "/wishlist/", token, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddToWishlist puts a game on the wishlist.
func (c *Client) AddToWishlist(ctx context.Context, token string, gameID int) (domain.WishlistItem, error) {
	payload := map[string]int{"game_id": gameID}
	var item domain.WishlistItem
	if err := c.doJSON(ctx, http.MethodPost, "/wishlist/", token, payload, &item); err != nil {
		return domain.WishlistItem{}, err
	}
	return item, nil
}

// RemoveFromWishlist drops a game from the wishlist.
func (c *Client) RemoveFromWishlist(ctx context.Context, token string, gameID int) error {
	payload := map[string]int{"game_id": gameID}
	return c.doJSON(ctx, http.MethodDelete, "/wishlist/remove_game/", token, payload, nil)
}

// Library lists the user's purchased games.
func (c *Client) Library(ctx context.Context, token string) ([]domain.LibraryEntry, error) {
	var entries []domain.LibraryEntry
	if err := c.doJSON(ctx, http.MethodGet, "/library/", token, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RecentGames lists the most recently played library entries.
func (c *Client) RecentGames(ctx context.Context, token string) ([]domain.LibraryEntry, error) {
	var entries []domain.LibraryEntry
	if err := c.doJSON(ctx, http.MethodGet, "/library/recent/", token, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Reviews lists reviews for a game.
func (c *Client) Reviews(ctx context.Context, gameID int) ([]domain.Review, error) {
	var reviews []domain.Review
	path := fmt.Sprintf("/reviews/?game_id=%d", gameID)
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// CreateReview submits a review for a game the user owns.
func (c *Client) CreateReview(ctx context.Context, token string, input ReviewInput) (domain.Review, error) {
	var review domain.Review
	if err := c.doJSON(ctx, http.MethodPost, "/reviews/", token, input, &review); err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// UpdateReview edits an existing review.
func (c *Client) UpdateReview(ctx context.Context, token string, reviewID int, input ReviewInput) (domain.Review, error) {
	var review domain.Review
	path := fmt.Sprintf("/reviews/%d/", reviewID)
	if err := c.doJSON(ctx, http.MethodPatch, path, token, input, &review); err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// DeleteReview removes a review.
func (c *Client) DeleteReview(ctx context.Context, token string, reviewID int) error {
	path := fmt.Sprintf("/reviews/%d/", reviewID)
	return c.doJSON(ctx, http.MethodDelete, path, token, nil, nil)
}
