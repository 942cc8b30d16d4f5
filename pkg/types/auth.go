// Package types defines the shared wire and domain types for the zchat
// client. It mirrors the backend's request/response models so the rest of
// the codebase never touches raw JSON maps.
package types

// TokenPair is the bearer credential issued by the auth endpoints.
// It is an immutable value: token rotation replaces the whole pair,
// never a single field. A logged-out client holds no pair at all (nil),
// so an access token without a refresh token cannot exist.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserProfile is the authenticated user as returned by GET /auth/me.
type UserProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// CredentialsRequest is the body for POST /auth/login and /auth/signup.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
