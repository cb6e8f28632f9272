package api

import (
	"context"
	"net/http"

	"notsteam/pkg/domain"
)

// RegisterInput is the registration request payload. PasswordConfirm must
// match Password; the backend validates and reports mismatches per field.
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// ProfileUpdate carries partial profile changes; zero fields are omitted.
type ProfileUpdate struct {
	StatusMessage  *string `json:"status_message,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type meResponse struct {
	User    domain.User    `json:"user"`
	Profile domain.Profile `json:"profile"`
}

// Login exchanges credentials for a token and identity.
func (c *Client) Login(ctx context.Context, username, password string) (domain.User, string, error) {
	payload := map[string]string{"username": username, "password": password}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login/", "", payload, &resp); err != nil {
		return domain.User{}, "", err
	}
	return resp.User, resp.Token, nil
}

// Register creates an account and returns its token and identity.
func (c *Client) Register(ctx context.Context, input RegisterInput) (domain.User, string, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register/", "", input, &resp); err != nil {
		return domain.User{}, "", err
	}
	return resp.User, resp.Token, nil
}

// Logout invalidates the token server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout/", token, nil, nil)
}

// Me resolves a token into the current user and profile.
func (c *Client) Me(ctx context.Context, token string) (domain.User, domain.Profile, error) {
	var resp meResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me/", token, nil, &resp); err != nil {
		return domain.User{}, domain.Profile{}, err
	}
	return resp.User, resp.Profile, nil
}

// Profile fetches the current user's profile.
func (c *Client) Profile(ctx context.Context, token string) (domain.Profile, error) {
	var profile domain.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/profiles/me/", token, nil, &profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// UpdateProfile applies a partial profile update.
func (c *Client) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (domain.Profile, error) {
	var profile domain.Profile
	if err := c.doJSON(ctx, http.MethodPatch, "/profiles/update_profile/", token, update, &profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}
