// Package client executes authenticated JSON, binary, and streaming
// calls against the zchat backend. It owns the retry-after-refresh
// policy: a 401 triggers exactly one credential refresh through the auth
// gateway and exactly one retry of the original call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"zchat/internal/auth"
	"zchat/internal/logger"
)

// DefaultTimeout bounds a single JSON or binary call when the caller
// does not override it. Streams are exempt; they live until cancelled.
const DefaultTimeout = 30 * time.Second

// Client is the resilient request executor. It is safe for concurrent
// use; unrelated calls that each hit a 401 share the gateway's single
// in-flight refresh.
type Client struct {
	baseURL string
	httpc   *http.Client
	store   *auth.TokenStore
	gateway *auth.Gateway
	timeout time.Duration
}

// New creates a Client for the given backend base URL.
func New(baseURL string, store *auth.TokenStore, gateway *auth.Gateway) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{},
		store:   store,
		gateway: gateway,
		timeout: DefaultTimeout,
	}
}

// SetTimeout configures the default per-call timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestConfig struct {
	headers map[string]string
	timeout time.Duration
}

// RequestOption customizes a single call.
type RequestOption func(*requestConfig)

// WithHeader adds or overrides one request header. Caller-supplied
// headers win over the client's defaults.
func WithHeader(key, value string) RequestOption {
	return func(cfg *requestConfig) {
		cfg.headers[key] = value
	}
}

// WithTimeout overrides the default per-call timeout.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(cfg *requestConfig) {
		cfg.timeout = timeout
	}
}

// RequestJSON executes one logical JSON call. An empty response body
// yields a nil RawMessage; a non-JSON body on a 2xx response is a
// malformed_response APIError, never a raw decode fault.
func (c *Client) RequestJSON(ctx context.Context, method, path string, body interface{}, opts ...RequestOption) (json.RawMessage, error) {
	status, raw, err := c.execute(ctx, method, path, body, opts)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, apiErrorFromBody(status, raw)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		logger.Error("backend returned a non-JSON body", "path", path, "status", status)
		return nil, &APIError{Code: "malformed_response", Message: "response body is not valid JSON", Status: status}
	}
	return json.RawMessage(raw), nil
}

// DecodeJSON runs RequestJSON and unmarshals the result into out. A nil
// body leaves out untouched.
func (c *Client) DecodeJSON(ctx context.Context, method, path string, body, out interface{}, opts ...RequestOption) error {
	raw, err := c.RequestJSON(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	if raw == nil || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Error("backend response did not match expected shape", "path", path, "error", err)
		return &APIError{Code: "malformed_response", Message: err.Error(), Status: http.StatusOK}
	}
	return nil
}

// RequestBinary executes one call and returns the raw response bytes.
// Auth, retry, and error conversion behave exactly as in RequestJSON.
func (c *Client) RequestBinary(ctx context.Context, method, path string, body interface{}, opts ...RequestOption) ([]byte, error) {
	status, raw, err := c.execute(ctx, method, path, body, opts)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, apiErrorFromBody(status, raw)
	}
	return raw, nil
}

// OpenStream POSTs to a streaming endpoint and hands back the live
// response body. No overall deadline is applied; the caller's context is
// the only way the stream ends early. The single 401-refresh-retry still
// applies to the initial exchange.
func (c *Client) OpenStream(ctx context.Context, path string, body interface{}) (io.ReadCloser, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	attempt := func() (*http.Response, error) {
		req, err := c.newRequest(ctx, http.MethodPost, path, payload, map[string]string{
			"Accept": "text/event-stream",
		})
		if err != nil {
			return nil, err
		}
		return c.httpc.Do(req)
	}

	resp, err := attempt()
	if err != nil {
		return nil, c.transportError(ctx, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if _, refreshErr := c.gateway.Refresh(ctx); refreshErr != nil {
			logger.Warn("silent refresh failed for stream", "path", path, "error", refreshErr)
			return nil, apiErrorFromBody(http.StatusUnauthorized, raw)
		}
		resp, err = attempt()
		if err != nil {
			return nil, c.transportError(ctx, path, err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, apiErrorFromBody(resp.StatusCode, raw)
	}

	logger.Debug("stream opened", "path", path)
	return resp.Body, nil
}

// execute performs the request with the per-call deadline and the single
// retry-after-refresh. It returns the final status and body; converting
// non-2xx statuses into errors is left to the caller because JSON and
// binary calls share this path.
func (c *Client) execute(ctx context.Context, method, path string, body interface{}, opts []RequestOption) (int, []byte, error) {
	cfg := &requestConfig{
		headers: make(map[string]string),
		timeout: c.timeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	payload, err := encodeBody(body)
	if err != nil {
		return 0, nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	status, raw, err := c.attempt(callCtx, method, path, payload, cfg.headers)
	if err != nil {
		return 0, nil, c.callError(ctx, path, cfg.timeout, err)
	}

	if status != http.StatusUnauthorized {
		return status, raw, nil
	}

	if _, refreshErr := c.gateway.Refresh(ctx); refreshErr != nil {
		// The original 401 wins over the refresh failure. Callers should
		// not depend on this, but it is deliberate and tested.
		logger.Warn("silent refresh failed", "path", path, "error", refreshErr)
		return status, raw, nil
	}

	logger.Debug("retrying after refresh", "path", path)
	status, raw, err = c.attempt(callCtx, method, path, payload, cfg.headers)
	if err != nil {
		return 0, nil, c.callError(ctx, path, cfg.timeout, err)
	}
	return status, raw, nil
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, overrides map[string]string) (int, []byte, error) {
	req, err := c.newRequest(ctx, method, path, payload, overrides)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	logger.Debug("request completed", "method", method, "path", path, "status", resp.StatusCode, "body_length", len(raw))
	return resp.StatusCode, raw, nil
}

// newRequest builds a request with the default headers, the bearer token
// when one is stored, and caller overrides applied last so they win.
func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte, overrides map[string]string) (*http.Request, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if pair := c.store.Read(); pair != nil && pair.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	}
	for key, value := range overrides {
		req.Header.Set(key, value)
	}
	return req, nil
}

// callError classifies a failed attempt: caller cancellation propagates
// untouched, a blown deadline becomes TimeoutError, everything else is a
// TransportError.
func (c *Client) callError(parent context.Context, path string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("request timed out", "path", path, "timeout", timeout.String())
		return &TimeoutError{Path: path, Timeout: timeout}
	}
	logger.Warn("request transport failure", "path", path, "error", err)
	return &TransportError{Path: path, Err: err}
}

func (c *Client) transportError(ctx context.Context, path string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logger.Warn("stream transport failure", "path", path, "error", err)
	return &TransportError{Path: path, Err: err}
}

func encodeBody(body interface{}) ([]byte, error) {
	switch value := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return value, nil
	case json.RawMessage:
		return value, nil
	default:
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		return payload, nil
	}
}
