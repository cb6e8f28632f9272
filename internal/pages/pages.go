// Package pages holds the per-route controllers. Each controller is
// constructed with the API client and session context it needs and
// returns plain view structs for the frontend to render.
package pages

import (
	"errors"

	"notsteam/internal/session"
)

// ErrLoginRequired is returned by protected controllers when no session
// is active; the frontend redirects to the login view.
var ErrLoginRequired = errors.New("login required")

func requireToken(sess *session.Context) (string, error) {
	token := sess.Token()
	if token == "" {
		return "", ErrLoginRequired
	}
	return token, nil
}
