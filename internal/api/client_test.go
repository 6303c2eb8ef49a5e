package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mavericksstream/unlock/internal/ctxkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type secretResponse struct {
	ClientSecret string `json:"client_secret" validate:"required"`
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestPostJSON(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/video/1/create-payment-intent", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"client_secret":"pi_1_secret_2"}`))
	})
	client := New(Options{BaseURL: srv.URL + "/", Token: "tok"})

	var out secretResponse
	ctx := ctxkeys.WithRequestID(context.Background(), "req-1")
	err := client.PostJSON(ctx, "/payments/video/1/create-payment-intent", nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret_2", out.ClientSecret)
}

func TestPostJSON_NoToken(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{}`))
	})

	for _, token := range []string{"", "null", "  "} {
		client := New(Options{BaseURL: srv.URL, Token: token})
		assert.False(t, client.HasToken())
		require.NoError(t, client.PostJSON(context.Background(), "/x", nil, nil))
	}
}

func TestPostJSON_MissingRequiredField(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"msg":"Video already unlocked"}`))
	})
	client := New(Options{BaseURL: srv.URL})

	var out secretResponse
	err := client.PostJSON(context.Background(), "/x", nil, &out)

	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestPostJSON_NotJSON(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	client := New(Options{BaseURL: srv.URL})

	var out secretResponse
	err := client.PostJSON(context.Background(), "/x", nil, &out)

	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestPostJSON_APIError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		message    string
		detail     string
		statusText string
	}{
		{
			name:       "payment route error",
			status:     http.StatusInternalServerError,
			body:       `{"error":"db down"}`,
			message:    "db down",
			detail:     "db down",
			statusText: "Internal Server Error",
		},
		{
			name:       "video route msg",
			status:     http.StatusBadRequest,
			body:       `{"msg":"Invalid price","error":"price must be positive"}`,
			detail:     "Invalid price price must be positive",
			message:    "price must be positive",
			statusText: "Bad Request",
		},
		{
			name:       "no body",
			status:     http.StatusNotFound,
			statusText: "Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			client := New(Options{BaseURL: srv.URL})

			err := client.PostJSON(context.Background(), "/x", map[string]string{"a": "b"}, nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.detail, apiErr.Detail())
			assert.Equal(t, tt.statusText, apiErr.StatusText())
		})
	}
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	client := New(Options{BaseURL: srv.URL, BreakerMaxFailures: 2, BreakerOpenFor: time.Minute})

	for i := 0; i < 2; i++ {
		var apiErr *APIError
		err := client.PostJSON(context.Background(), "/x", nil, nil)
		require.ErrorAs(t, err, &apiErr)
	}

	err := client.PostJSON(context.Background(), "/x", nil, nil)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	client := New(Options{BaseURL: srv.URL, BreakerMaxFailures: 1})

	for i := 0; i < 3; i++ {
		var apiErr *APIError
		require.ErrorAs(t, client.PostJSON(context.Background(), "/x", nil, nil), &apiErr)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestPostMultipart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("frames"), 0o600))

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Cats", r.FormValue("title"))
		assert.Equal(t, "true", r.FormValue("is_paid_unlock"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		assert.NoError(t, err)
		assert.Equal(t, "clip.mp4", header.Filename)
		assert.Equal(t, "frames", string(data))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"msg":"Video uploaded successfully!","video_id":5}`))
	})
	client := New(Options{BaseURL: srv.URL, Token: "tok"})

	var out struct {
		Msg     string `json:"msg"`
		VideoID int64  `json:"video_id"`
	}
	err := client.PostMultipart(context.Background(), "/videos/upload", []Field{
		{Name: "title", Value: "Cats"},
		{Name: "is_paid_unlock", Value: "true"},
	}, "file", path, &out)

	require.NoError(t, err)
	assert.Equal(t, int64(5), out.VideoID)
}

func TestPostMultipart_MissingFile(t *testing.T) {
	client := New(Options{BaseURL: "http://127.0.0.1:1"})
	err := client.PostMultipart(context.Background(), "/videos/upload", nil, "file", filepath.Join(t.TempDir(), "nope.mp4"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
