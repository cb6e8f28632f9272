package pages

import (
	"context"

	"notsteam/internal/api"
	"notsteam/internal/session"
	"notsteam/pkg/domain"
)

// ProfilePage drives the account profile view.
type ProfilePage struct {
	api  *api.Client
	sess *session.Context
}

// NewProfilePage constructs the profile controller.
func NewProfilePage(client *api.Client, sess *session.Context) *ProfilePage {
	return &ProfilePage{api: client, sess: sess}
}

// Load fetches the current user's profile.
func (p *ProfilePage) Load(ctx context.Context) (domain.Profile, error) {
	token, err := requireToken(p.sess)
	if err != nil {
		return domain.Profile{}, err
	}
	return p.api.Profile(ctx, token)
}

// Update applies a partial profile edit and returns the updated record.
func (p *ProfilePage) Update(ctx context.Context, update api.ProfileUpdate) (domain.Profile, error) {
	token, err := requireToken(p.sess)
	if err != nil {
		return domain.Profile{}, err
	}
	return p.api.UpdateProfile(ctx, token, update)
}
