package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"zchat/pkg/types"
)

// Send issues one non-streaming chat turn and returns the full reply.
func (a *API) Send(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	var resp types.ChatResponse
	if err := a.client.DecodeJSON(ctx, http.MethodPost, "/chat/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stream opens the SSE variant of the chat endpoint and returns the raw
// event stream. The caller owns the body and must close it.
func (a *API) Stream(ctx context.Context, req types.ChatRequest) (io.ReadCloser, error) {
	return a.client.OpenStream(ctx, "/chat/stream", req)
}

// ListSessions returns the stored conversation summaries.
func (a *API) ListSessions(ctx context.Context) ([]types.SessionSummary, error) {
	var sessions []types.SessionSummary
	if err := a.client.DecodeJSON(ctx, http.MethodGet, "/chat/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SessionDetail fetches one session with its full message log.
func (a *API) SessionDetail(ctx context.Context, sessionID string) (*types.SessionDetail, error) {
	var detail types.SessionDetail
	path := fmt.Sprintf("/chat/sessions/%s", sessionID)
	if err := a.client.DecodeJSON(ctx, http.MethodGet, path, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeleteSession removes a stored session.
func (a *API) DeleteSession(ctx context.Context, sessionID string) error {
	path := fmt.Sprintf("/chat/sessions/%s", sessionID)
	_, err := a.client.RequestJSON(ctx, http.MethodDelete, path, nil)
	return err
}
