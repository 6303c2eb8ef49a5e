package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mavericksstream/unlock/internal/ctxkeys"
	"github.com/sony/gobreaker/v2"
)

// loggingTransport logs every backend call with method, path, status and duration
type loggingTransport struct {
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := ctxkeys.RequestID(req.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}
	req = req.Clone(req.Context())
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)

	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"duration_ms", duration.Milliseconds(),
		"request_id", requestID,
	}
	if attemptID := ctxkeys.AttemptID(req.Context()); attemptID != "" {
		attrs = append(attrs, "attempt_id", attemptID)
	}

	if err != nil {
		slog.Warn("backend request failed", append(attrs, "error", err)...)
		return nil, err
	}

	slog.Info("backend request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}

// errServerStatus marks a 5xx answer as a breaker failure without turning it into a transport error.
var errServerStatus = errors.New("server error status")

// breakerTransport fails fast once the backend keeps answering with transport errors or 5xx.
// It never retries.
type breakerTransport struct {
	next    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func newBreakerTransport(next http.RoundTripper, maxFailures uint32, openFor time.Duration) *breakerTransport {
	if maxFailures == 0 {
		maxFailures = 5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "backend",
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &breakerTransport{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, errServerStatus):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	case err != nil:
		return nil, err
	}
	return resp, nil
}
