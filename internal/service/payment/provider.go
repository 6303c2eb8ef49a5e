package payment

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means the provider could not be initialized, e.g. the publishable key is missing.
	ErrUnavailable  = errors.New("payment provider unavailable")
	ErrNotMounted   = errors.New("payment form not mounted")
	ErrIntentClosed = errors.New("payment intent can no longer be confirmed")
)

// ValidationError is a card or form level problem whose message is meant for the user as is.
type ValidationError struct {
	Code    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Form is a mounted payment form bound to one intent's client secret.
type Form struct {
	IntentID     string
	ClientSecret string
	Container    string
	Amount       int64
	Currency     string
	Status       string

	mounted bool
}

// NewForm returns a form in the mounted state.
func NewForm(intentID, secret, container string) *Form {
	return &Form{
		IntentID:     intentID,
		ClientSecret: secret,
		Container:    container,
		mounted:      true,
	}
}

func (f *Form) Mounted() bool {
	return f != nil && f.mounted
}

// Release marks the form torn down. Safe on nil.
func (f *Form) Release() {
	if f != nil {
		f.mounted = false
	}
}

// Provider defines the hosted payment capability the unlock flow relies on
type Provider interface {
	// Mount renders a payment form for the intent behind secret into container
	Mount(ctx context.Context, secret, container string) (*Form, error)

	// Confirm submits the form. On success the provider navigates to redirectTarget
	// (or to an intermediate authentication page that ends there).
	Confirm(ctx context.Context, form *Form, redirectTarget string) error

	// Unmount tears the form down
	Unmount(form *Form)

	// Name returns the provider name (e.g., "stripe")
	Name() string
}

// DetailsCollector is the input side of the form: it gathers the payment method to confirm with.
type DetailsCollector interface {
	CollectPaymentMethod(ctx context.Context, form *Form) (string, error)
}

// Navigator moves the user to another page; after it returns the current page is considered gone.
type Navigator interface {
	Navigate(target string) error
}
