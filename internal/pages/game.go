package pages

import (
	"context"
	"log/slog"

	"notsteam/internal/api"
	"notsteam/internal/session"
	"notsteam/pkg/domain"
)

// GamePage drives a single game's detail view.
type GamePage struct {
	api  *api.Client
	sess *session.Context
	log  *slog.Logger
}

// NewGamePage constructs the detail controller.
func NewGamePage(client *api.Client, sess *session.Context, log *slog.Logger) *GamePage {
	if log == nil {
		log = slog.Default()
	}
	return &GamePage{api: client, sess: sess, log: log}
}

// GameView is the rendered detail state.
type GameView struct {
	Game    domain.Game
	Reviews []domain.Review
	InCart  bool
}

// Load fetches the game by id or slug plus its reviews. A review fetch
// failure renders the page without reviews rather than failing it.
func (p *GamePage) Load(ctx context.Context, slugOrID string) (GameView, error) {
	game, err := p.api.GameByID(ctx, slugOrID)
	if err != nil {
		return GameView{}, err
	}
	view := GameView{Game: game}
	reviews, err := p.api.Reviews(ctx, game.ID)
	if err != nil {
		p.log.Warn("review load failed", "game", game.ID, "err", err)
	} else {
		view.Reviews = reviews
	}
	for _, id := range p.sess.CartIDs() {
		if id == game.ID {
			view.InCart = true
			break
		}
	}
	return view, nil
}

// AddToCart adds the game server-side, then appends it to the local cart.
// The local append only happens once the backend has confirmed.
func (p *GamePage) AddToCart(ctx context.Context, game domain.Game) error {
	token, err := requireToken(p.sess)
	if err != nil {
		return err
	}
	if _, err := p.api.AddToCart(ctx, token, game.ID); err != nil {
		return err
	}
	p.sess.AppendCart(game)
	return nil
}

// AddToWishlist puts the game on the wishlist.
func (p *GamePage) AddToWishlist(ctx context.Context, gameID int) error {
	token, err := requireToken(p.sess)
	if err != nil {
		return err
	}
	_, err = p.api.AddToWishlist(ctx, token, gameID)
	return err
}

// RemoveFromWishlist drops the game from the wishlist.
func (p *GamePage) RemoveFromWishlist(ctx context.Context, gameID int) error {
	token, err := requireToken(p.sess)
	if err != nil {
		return err
	}
	return p.api.RemoveFromWishlist(ctx, token, gameID)
}

// SubmitReview posts a review for the game.
func (p *GamePage) SubmitReview(ctx context.Context, input api.ReviewInput) (domain.Review, error) {
	token, err := requireToken(p.sess)
	if err != nil {
		return domain.Review{}, err
	}
	return p.api.CreateReview(ctx, token, input)
}
