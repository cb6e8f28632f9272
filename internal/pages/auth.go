package pages

import (
	"context"

	"notsteam/internal/api"
	"notsteam/internal/session"
)

const minPasswordLength = 8

// Auth drives the login and registration views. It validates the obvious
// cases locally and hands everything else to the session context.
type Auth struct {
	sess *session.Context
}

// NewAuth constructs the auth controller.
func NewAuth(sess *session.Context) *Auth {
	return &Auth{sess: sess}
}

// Login attempts a login. Blank fields fail without a network call.
func (a *Auth) Login(ctx context.Context, username, password string) session.Result {
	if username == "" || password == "" {
		return session.Result{Message: "Username and password are required"}
	}
	return a.sess.Login(ctx, username, password)
}

// Register attempts a registration. Mismatched or short passwords fail
// locally with field-keyed errors, matching the shape backend validation
// failures arrive in.
func (a *Auth) Register(ctx context.Context, input api.RegisterInput) session.Result {
	fields := make(map[string][]string)
	if input.Username == "" {
		fields["username"] = append(fields["username"], "Username is required")
	}
	if input.Password != input.PasswordConfirm {
		fields["password_confirm"] = append(fields["password_confirm"], "Passwords do not match")
	}
	if len(input.Password) < minPasswordLength {
		fields["password"] = append(fields["password"], "Password must be at least 8 characters")
	}
	if len(fields) > 0 {
		return session.Result{Message: "Please fix the highlighted fields", Fields: fields}
	}
	return a.sess.Register(ctx, input)
}

// Logout ends the session.
func (a *Auth) Logout(ctx context.Context) {
	a.sess.Logout(ctx)
}
