package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mavericksstream/unlock/internal/api"
	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backend(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.New(api.Options{BaseURL: srv.URL, Token: "tok"})
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestCreateIntent(t *testing.T) {
	client := backend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments/video/9/create-payment-intent", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		respond(http.StatusOK, `{"client_secret":"pi_9_secret_z","video_id":9,"video_price":9.99}`)(w, r)
	})

	handle, err := service.NewIntentService(client).CreateIntent(context.Background(), "9")

	require.NoError(t, err)
	assert.Equal(t, "9", handle.ContentID)
	assert.Equal(t, "pi_9_secret_z", handle.ClientSecret)
	assert.Equal(t, "pi_9", handle.IntentID)
	assert.Equal(t, &model.Price{Amount: 999, Currency: "usd"}, handle.Price)
}

func TestCreateIntent_EscapesContentID(t *testing.T) {
	client := backend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/video/a%2Fb/create-payment-intent", r.URL.EscapedPath())
		respond(http.StatusOK, `{"client_secret":"pi_1_secret_z"}`)(w, r)
	})

	_, err := service.NewIntentService(client).CreateIntent(context.Background(), "a/b")
	require.NoError(t, err)
}

func TestCreateIntent_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		reason  string
		wantErr error
	}{
		{
			name:    "backend error text",
			status:  http.StatusInternalServerError,
			body:    `{"error":"db down"}`,
			reason:  "db down",
			wantErr: &api.APIError{},
		},
		{
			name:   "backend msg",
			status: http.StatusNotFound,
			body:   `{"msg":"Video not found"}`,
			reason: "Video not found",
		},
		{
			name:   "no body",
			status: http.StatusForbidden,
			reason: "Failed to create payment intent: Forbidden",
		},
		{
			name:    "already unlocked",
			status:  http.StatusOK,
			body:    `{"msg":"Video already unlocked"}`,
			reason:  "Video already unlocked",
			wantErr: api.ErrMalformedResponse,
		},
		{
			name:    "missing secret",
			status:  http.StatusOK,
			body:    `{"video_id":3}`,
			reason:  "Client secret not received for payment intent.",
			wantErr: api.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := backend(t, respond(tt.status, tt.body))

			handle, err := service.NewIntentService(client).CreateIntent(context.Background(), "3")

			require.Error(t, err)
			assert.Empty(t, handle.ClientSecret)
			assert.ErrorIs(t, err, service.ErrIntentFailed)
			assert.Equal(t, tt.reason, err.Error())
			switch want := tt.wantErr.(type) {
			case nil:
			case *api.APIError:
				assert.ErrorAs(t, err, &want)
			default:
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestCreateIntent_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := api.New(api.Options{BaseURL: srv.URL})

	_, err := service.NewIntentService(client).CreateIntent(context.Background(), "3")

	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrIntentFailed)
	var intentErr *service.IntentError
	require.ErrorAs(t, err, &intentErr)
	assert.NotEmpty(t, intentErr.Reason)
}
