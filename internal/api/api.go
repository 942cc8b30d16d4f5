// Package api wraps the backend's HTTP surface with typed operations.
// Each file covers one backend router: auth, chat, image, translate.
package api

import (
	"zchat/internal/client"
)

// API exposes the backend endpoints over a shared request client.
type API struct {
	client *client.Client
}

// New creates the typed API layer over the given client.
func New(c *client.Client) *API {
	return &API{client: c}
}
