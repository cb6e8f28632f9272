package pages

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"notsteam/internal/api"
	"notsteam/internal/session"
	"notsteam/pkg/domain"
)

// SortMode selects the catalog grid ordering.
type SortMode string

const (
	SortDefault   SortMode = "default"
	SortPriceAsc  SortMode = "price-asc"
	SortPriceDesc SortMode = "price-desc"
	SortTitleAsc  SortMode = "name-asc"
	SortTitleDesc SortMode = "name-desc"
)

// gridSize caps the catalog grid to its first page.
const gridSize = 16

// Home drives the storefront landing view.
type Home struct {
	api  *api.Client
	sess *session.Context
	log  *slog.Logger
}

// NewHome constructs the home controller.
func NewHome(client *api.Client, sess *session.Context, log *slog.Logger) *Home {
	if log == nil {
		log = slog.Default()
	}
	return &Home{api: client, sess: sess, log: log}
}

// HomeView is the rendered landing state.
type HomeView struct {
	Featured      []domain.Game
	Grid          []domain.Game
	WishlistCount int
	CartCount     int
}

// Load fetches the featured carousel and the full catalog in parallel,
// then applies the sort mode to the grid. The wishlist badge is
// best-effort: its failure never blocks the page.
func (h *Home) Load(ctx context.Context, mode SortMode) (HomeView, error) {
	var (
		featured      []domain.Game
		all           []domain.Game
		wishlistCount int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		games, err := h.api.FeaturedGames(gctx)
		if err != nil {
			return err
		}
		featured = games
		return nil
	})
	g.Go(func() error {
		games, err := h.api.Games(gctx)
		if err != nil {
			return err
		}
		all = games
		return nil
	})
	if token := h.sess.Token(); token != "" {
		g.Go(func() error {
			items, err := h.api.Wishlist(gctx, token)
			if err != nil {
				h.log.Warn("wishlist badge load failed", "err", err)
				return nil
			}
			wishlistCount = len(items)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return HomeView{}, err
	}

	grid := SortGames(all, mode)
	if len(grid) > gridSize {
		grid = grid[:gridSize]
	}
	return HomeView{
		Featured:      featured,
		Grid:          grid,
		WishlistCount: wishlistCount,
		CartCount:     len(h.sess.Cart()),
	}, nil
}

// Search queries the catalog by title, description or tag.
func (h *Home) Search(ctx context.Context, query string) ([]domain.Game, error) {
	return h.api.SearchGames(ctx, query)
}

// SortGames returns a sorted copy of games. The default mode keeps the
// backend's ordering. Price modes compare the discounted price, which
// the backend encodes as a decimal string.
func SortGames(games []domain.Game, mode SortMode) []domain.Game {
	sorted := make([]domain.Game, len(games))
	copy(sorted, games)
	switch mode {
	case SortPriceAsc:
		sort.SliceStable(sorted, func(i, j int) bool {
			return priceOf(sorted[i]) < priceOf(sorted[j])
		})
	case SortPriceDesc:
		sort.SliceStable(sorted, func(i, j int) bool {
			return priceOf(sorted[i]) > priceOf(sorted[j])
		})
	case SortTitleAsc:
		sort.SliceStable(sorted, func(i, j int) bool {
			return titleLess(sorted[i], sorted[j])
		})
	case SortTitleDesc:
		sort.SliceStable(sorted, func(i, j int) bool {
			return titleLess(sorted[j], sorted[i])
		})
	}
	return sorted
}

func priceOf(g domain.Game) float64 {
	price, err := strconv.ParseFloat(g.DiscountedPrice, 64)
	if err != nil {
		return 0
	}
	return price
}

func titleLess(a, b domain.Game) bool {
	return strings.ToLower(a.Title) < strings.ToLower(b.Title)
}
