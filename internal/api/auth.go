package api

import (
	"context"
	"net/http"

	"zchat/pkg/types"
)

// Login exchanges credentials for a token pair. Persisting the pair is
// the caller's decision; the API layer never touches the store.
func (a *API) Login(ctx context.Context, email, password string) (*types.TokenPair, error) {
	var pair types.TokenPair
	body := types.CredentialsRequest{Email: email, Password: password}
	if err := a.client.DecodeJSON(ctx, http.MethodPost, "/auth/login", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Signup registers a new account and returns its first token pair.
func (a *API) Signup(ctx context.Context, email, password string) (*types.TokenPair, error) {
	var pair types.TokenPair
	body := types.CredentialsRequest{Email: email, Password: password}
	if err := a.client.DecodeJSON(ctx, http.MethodPost, "/auth/signup", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Profile fetches the authenticated user from GET /auth/me.
func (a *API) Profile(ctx context.Context) (*types.UserProfile, error) {
	var profile types.UserProfile
	if err := a.client.DecodeJSON(ctx, http.MethodGet, "/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
