package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"

	"github.com/mavericksstream/unlock/internal/api"
	"github.com/mavericksstream/unlock/internal/model"
)

var ErrIntentFailed = errors.New("failed to create payment intent")

// IntentError carries the reason shown to the user when no intent could be created.
type IntentError struct {
	Reason string
	Err    error
}

func (e *IntentError) Error() string {
	return e.Reason
}

func (e *IntentError) Unwrap() []error {
	return []error{ErrIntentFailed, e.Err}
}

type IntentService struct {
	client *api.Client
}

func NewIntentService(client *api.Client) *IntentService {
	return &IntentService{client: client}
}

type intentResponse struct {
	ClientSecret string   `json:"client_secret" validate:"required"`
	VideoID      any      `json:"video_id"`
	VideoPrice   *float64 `json:"video_price"`
	Msg          string   `json:"msg"`
}

// CreateIntent asks the backend for a fresh payment intent for one video.
// Every call may mint a new intent; callers decide how often to call it.
func (s *IntentService) CreateIntent(ctx context.Context, contentID string) (model.PaymentIntentHandle, error) {
	path := fmt.Sprintf("/payments/video/%s/create-payment-intent", url.PathEscape(contentID))

	var resp intentResponse
	err := s.client.PostJSON(ctx, path, nil, &resp)
	if err != nil {
		return model.PaymentIntentHandle{}, intentError(err, resp)
	}

	handle := model.PaymentIntentHandle{
		ContentID:    contentID,
		ClientSecret: resp.ClientSecret,
		IntentID:     model.IntentIDFromSecret(resp.ClientSecret),
	}
	if resp.VideoPrice != nil {
		handle.Price = &model.Price{
			Amount:   int64(math.Round(*resp.VideoPrice * 100)),
			Currency: "usd",
		}
	}

	return handle, nil
}

func intentError(err error, resp intentResponse) error {
	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr):
		reason := apiErr.Message
		if reason == "" {
			reason = apiErr.Msg
		}
		if reason == "" {
			reason = "Failed to create payment intent: " + apiErr.StatusText()
		}
		return &IntentError{Reason: reason, Err: err}

	case errors.Is(err, api.ErrMalformedResponse):
		// The backend answers 200 without a secret when the video is already unlocked.
		reason := "Client secret not received for payment intent."
		if resp.Msg != "" {
			reason = resp.Msg
		}
		return &IntentError{Reason: reason, Err: err}

	default:
		return &IntentError{Reason: err.Error(), Err: err}
	}
}
