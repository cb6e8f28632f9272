package pages

import (
	"context"

	"golang.org/x/sync/errgroup"

	"notsteam/internal/api"
	"notsteam/internal/session"
	"notsteam/pkg/domain"
)

// Library drives the purchased-games view.
type Library struct {
	api  *api.Client
	sess *session.Context
}

// NewLibrary constructs the library controller.
func NewLibrary(client *api.Client, sess *session.Context) *Library {
	return &Library{api: client, sess: sess}
}

// LibraryView is the rendered library state.
type LibraryView struct {
	Entries []domain.LibraryEntry
	Recent  []domain.LibraryEntry
}

// Load fetches the full library and the recently played list in
// parallel.
func (l *Library) Load(ctx context.Context) (LibraryView, error) {
	token, err := requireToken(l.sess)
	if err != nil {
		return LibraryView{}, err
	}
	var view LibraryView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := l.api.Library(gctx, token)
		if err != nil {
			return err
		}
		view.Entries = entries
		return nil
	})
	g.Go(func() error {
		recent, err := l.api.RecentGames(gctx, token)
		if err != nil {
			return err
		}
		view.Recent = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return LibraryView{}, err
	}
	return view, nil
}
