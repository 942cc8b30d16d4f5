package api

import (
	"context"
	"net/http"

	"zchat/pkg/types"
)

// GenerateImage asks the backend to render a prompt and returns the
// image as a base64 payload.
func (a *API) GenerateImage(ctx context.Context, prompt string) (string, error) {
	var resp types.ImageResponse
	body := types.ImageRequest{Prompt: prompt}
	if err := a.client.DecodeJSON(ctx, http.MethodPost, "/image/generate", body, &resp); err != nil {
		return "", err
	}
	return resp.ImageBase64, nil
}
