package service

import (
	"context"
	"errors"

	"github.com/mavericksstream/unlock/internal/api"
	"github.com/mavericksstream/unlock/internal/model"
)

var ErrLinkFailed = errors.New("account linking failed")

// LinkError carries the reason shown to the user when a linking step fails.
type LinkError struct {
	Reason string
	Err    error
}

func (e *LinkError) Error() string {
	return e.Reason
}

func (e *LinkError) Unwrap() []error {
	return []error{ErrLinkFailed, e.Err}
}

// LinkingService registers a bank account as the user's payment source.
type LinkingService struct {
	client *api.Client
}

func NewLinkingService(client *api.Client) *LinkingService {
	return &LinkingService{client: client}
}

// CreateLinkToken fetches the short-lived token that initializes the linking widget.
func (s *LinkingService) CreateLinkToken(ctx context.Context) (string, error) {
	var resp struct {
		LinkToken string `json:"link_token" validate:"required"`
	}

	err := s.client.PostJSON(ctx, "/payments/create-link-token", nil, &resp)
	if err != nil {
		return "", linkError(err, "Failed to fetch link token: ", "Link token not received from server.")
	}

	return resp.LinkToken, nil
}

type setPaymentMethodRequest struct {
	PublicToken string              `json:"public_token"`
	Metadata    model.LinkedAccount `json:"metadata"`
}

// SetPaymentMethod hands the widget's public token to the backend and returns its confirmation text.
func (s *LinkingService) SetPaymentMethod(ctx context.Context, publicToken string, account model.LinkedAccount) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}

	req := setPaymentMethodRequest{
		PublicToken: publicToken,
		Metadata:    account,
	}

	err := s.client.PostJSON(ctx, "/payments/set-payment-method", req, &resp)
	if err != nil {
		return "", linkError(err, "Failed to set payment method: ", "Invalid response from server.")
	}

	if resp.Message == "" {
		return "Payment method successfully set!", nil
	}
	return resp.Message, nil
}

func linkError(err error, statusPrefix, malformed string) error {
	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr):
		reason := apiErr.Message
		if reason == "" {
			reason = statusPrefix + apiErr.StatusText()
		}
		return &LinkError{Reason: reason, Err: err}
	case errors.Is(err, api.ErrMalformedResponse):
		return &LinkError{Reason: malformed, Err: err}
	default:
		return &LinkError{Reason: err.Error(), Err: err}
	}
}
