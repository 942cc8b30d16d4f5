package api

import (
	"context"
	"net/http"

	"zchat/pkg/types"
)

// Translate converts text between two language codes.
func (a *API) Translate(ctx context.Context, text, from, to string) (string, error) {
	var resp types.TranslationResponse
	body := types.TranslationRequest{Text: text, From: from, To: to}
	if err := a.client.DecodeJSON(ctx, http.MethodPost, "/translate/translate", body, &resp); err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}
