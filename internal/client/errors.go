package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// APIError is a structured rejection from the backend: any final non-2xx
// response is converted into one of these, using the nested error object
// from the body when the backend provided it.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("request failed (%d %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}

// IsAuthFailure reports whether the error came back as 401 Unauthorized,
// which the UI surfaces as session-expired rather than a generic failure.
func (e *APIError) IsAuthFailure() bool {
	return e.Status == http.StatusUnauthorized
}

// TimeoutError reports that a call exceeded its deadline and was
// cancelled locally before the backend answered.
type TimeoutError struct {
	Path    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.Path, e.Timeout)
}

// TransportError reports that the backend could not be reached at all:
// DNS failure, refused connection, broken pipe mid-stream.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// errorBody matches the two envelope shapes the backend emits: FastAPI's
// detail field (object or bare string) and the error.* variant.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Err    json.RawMessage `json:"error"`
}

type errorObject struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// apiErrorFromBody builds an APIError for a non-2xx response. The nested
// error object wins when present; otherwise the HTTP status text is used
// so the caller always gets a human-readable message.
func apiErrorFromBody(status int, body []byte) *APIError {
	apiErr := &APIError{
		Status:  status,
		Message: http.StatusText(status),
	}
	if len(body) == 0 {
		return apiErr
	}

	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apiErr
	}

	nested := envelope.Detail
	if nested == nil {
		nested = envelope.Err
	}
	if nested == nil {
		return apiErr
	}

	var obj errorObject
	if err := json.Unmarshal(nested, &obj); err == nil && (obj.Code != "" || obj.Message != "") {
		if obj.Code != "" {
			apiErr.Code = obj.Code
		}
		if obj.Message != "" {
			apiErr.Message = obj.Message
		}
		apiErr.RequestID = obj.RequestID
		return apiErr
	}

	// FastAPI frequently raises with a bare string detail.
	var msg string
	if err := json.Unmarshal(nested, &msg); err == nil && msg != "" {
		apiErr.Message = msg
	}
	return apiErr
}
