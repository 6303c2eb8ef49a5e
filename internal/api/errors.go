package api

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrMalformedResponse  = errors.New("malformed response")
)

// APIError is a non-2xx answer from the backend.
// The backend reports failures as {"error": "..."} on payment routes and {"msg": "..."} on video routes.
type APIError struct {
	StatusCode int
	Status     string
	Message    string `json:"error"`
	Msg        string `json:"msg"`
}

func (e *APIError) Error() string {
	detail := e.Detail()
	if detail == "" {
		return fmt.Sprintf("backend returned %s", e.statusText())
	}
	return fmt.Sprintf("backend returned %s: %s", e.statusText(), detail)
}

// Detail is the human-readable reason the backend gave, if any.
func (e *APIError) Detail() string {
	return strings.TrimSpace(strings.TrimSpace(e.Msg + " " + e.Message))
}

func (e *APIError) statusText() string {
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("%d", e.StatusCode)
}

// StatusText mirrors what a browser exposes as response.statusText.
func (e *APIError) StatusText() string {
	_, text, found := strings.Cut(e.Status, " ")
	if !found {
		return e.Status
	}
	return text
}
