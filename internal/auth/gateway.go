package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"zchat/internal/logger"
	"zchat/pkg/types"
)

// Reasons a refresh can fail.
const (
	NoRefreshToken  = "no_refresh_token"
	RefreshRejected = "refresh_rejected"
)

// AuthError is a failed credential refresh. A refresh failure is an
// implicit logout: by the time a caller sees one of these the stored
// token pair has already been cleared.
type AuthError struct {
	Reason string
	Status int
	Code   string
}

func (e *AuthError) Error() string {
	if e.Reason == NoRefreshToken {
		return "no refresh token available"
	}
	if e.Code != "" {
		return fmt.Sprintf("token refresh rejected (%d %s)", e.Status, e.Code)
	}
	return fmt.Sprintf("token refresh rejected (%d)", e.Status)
}

// ticket is one in-flight refresh, shared by reference between every
// caller that arrives while it is outstanding.
type ticket struct {
	done chan struct{}
	pair *types.TokenPair
	err  error
}

// Gateway coordinates credential refresh so that any number of
// concurrent 401 responses produce exactly one outbound call to
// /auth/refresh. It talks to the endpoint with a plain http.Client of
// its own; routing it through the retrying request client would recurse
// into the 401 handling it exists to serve.
type Gateway struct {
	store   *TokenStore
	baseURL string
	httpc   *http.Client

	mu      sync.Mutex
	current *ticket
}

// NewGateway creates a refresh gateway over the given store and backend
// base URL.
func NewGateway(store *TokenStore, baseURL string) *Gateway {
	return &Gateway{
		store:   store,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Refresh exchanges the stored refresh token for a new pair. Concurrent
// callers share a single in-flight exchange and all observe the same
// outcome. On any failure the store is cleared before the error is
// returned, so callers must treat a failed refresh as a logout.
func (g *Gateway) Refresh(ctx context.Context) (*types.TokenPair, error) {
	g.mu.Lock()
	if g.current != nil {
		t := g.current
		g.mu.Unlock()
		logger.Debug("refresh already in flight, joining")
		return g.wait(ctx, t)
	}
	t := &ticket{done: make(chan struct{})}
	g.current = t
	g.mu.Unlock()

	pair, err := g.exchange(ctx)

	t.pair = pair
	t.err = err

	// The ticket reference is cleared before any waiter observes the
	// result, so a refresh that settles can never be joined late.
	g.mu.Lock()
	g.current = nil
	g.mu.Unlock()
	close(t.done)

	return copyPair(pair), err
}

func (g *Gateway) wait(ctx context.Context, t *ticket) (*types.TokenPair, error) {
	select {
	case <-t.done:
		return copyPair(t.pair), t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Gateway) exchange(ctx context.Context) (*types.TokenPair, error) {
	stored := g.store.Read()
	if stored == nil || stored.RefreshToken == "" {
		g.store.Clear()
		return nil, &AuthError{Reason: NoRefreshToken}
	}

	body, err := json.Marshal(types.RefreshRequest{RefreshToken: stored.RefreshToken})
	if err != nil {
		g.store.Clear()
		return nil, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		g.store.Clear()
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("refreshing credentials", "path", "/auth/refresh")
	resp, err := g.httpc.Do(req)
	if err != nil {
		g.store.Clear()
		return nil, fmt.Errorf("refresh call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		g.store.Clear()
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		authErr := &AuthError{
			Reason: RefreshRejected,
			Status: resp.StatusCode,
			Code:   rejectionCode(raw),
		}
		logger.Warn("refresh rejected, clearing credentials", "status", resp.StatusCode, "code", authErr.Code)
		g.store.Clear()
		return nil, authErr
	}

	var pair types.TokenPair
	if err := json.Unmarshal(raw, &pair); err != nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		g.store.Clear()
		return nil, fmt.Errorf("refresh returned an unusable token pair")
	}

	g.store.Write(&pair)
	logger.Debug("credentials refreshed")
	return &pair, nil
}

// rejectionCode pulls the machine-readable code out of a refresh
// rejection body, tolerating both the detail.* and error.* envelopes as
// well as FastAPI's bare-string detail.
func rejectionCode(raw []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Err    json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	nested := envelope.Detail
	if nested == nil {
		nested = envelope.Err
	}
	if nested == nil {
		return ""
	}
	var obj struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(nested, &obj); err == nil {
		return obj.Code
	}
	return ""
}
