package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mavericksstream/unlock/internal/model"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
)

type StripeOptions struct {
	PublishableKey string
	APIURL         string       // Optional: stripe-mock or a test server
	HTTPClient     *http.Client // Optional
	Debug          bool
}

// StripeProvider drives a PaymentIntent with the publishable key and the intent's client secret,
// the same calls the hosted payment element makes.
type StripeProvider struct {
	intents   paymentintent.Client
	collector DetailsCollector
	navigator Navigator
}

func NewStripeProvider(opts StripeOptions, collector DetailsCollector, navigator Navigator) *StripeProvider {
	backendConfig := &stripe.BackendConfig{
		// Every retry is a new user action
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripeLogger{debug: opts.Debug},
	}
	if opts.APIURL != "" {
		backendConfig.URL = stripe.String(strings.TrimRight(opts.APIURL, "/"))
	}
	if opts.HTTPClient != nil {
		backendConfig.HTTPClient = opts.HTTPClient
	}

	slog.Debug("stripe provider initialized", "api_url", opts.APIURL)

	return &StripeProvider{
		intents: paymentintent.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
			Key: opts.PublishableKey,
		},
		collector: collector,
		navigator: navigator,
	}
}

func (s *StripeProvider) Name() string {
	return model.ProviderStripe
}

func (s *StripeProvider) Mount(ctx context.Context, secret, container string) (*Form, error) {
	intentID := model.IntentIDFromSecret(secret)
	if intentID == secret || intentID == "" {
		return nil, fmt.Errorf("malformed client secret")
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExtra("client_secret", secret)

	pi, err := s.intents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction:
	default:
		return nil, fmt.Errorf("%w: status %s", ErrIntentClosed, pi.Status)
	}

	form := NewForm(pi.ID, secret, container)
	form.Amount = pi.Amount
	form.Currency = string(pi.Currency)
	form.Status = string(pi.Status)

	slog.Info("stripe payment form mounted", "intent_id", pi.ID, "container", container, "status", pi.Status)
	return form, nil
}

func (s *StripeProvider) Confirm(ctx context.Context, form *Form, redirectTarget string) error {
	if !form.Mounted() {
		return ErrNotMounted
	}

	paymentMethod, err := s.collector.CollectPaymentMethod(ctx, form)
	if err != nil {
		return err
	}
	paymentMethod = strings.TrimSpace(paymentMethod)
	if paymentMethod == "" {
		return &ValidationError{Code: "incomplete_payment_method", Message: "Please provide a payment method to continue."}
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
		ReturnURL:     stripe.String(redirectTarget),
	}
	params.Context = ctx
	params.AddExtra("client_secret", form.ClientSecret)

	pi, err := s.intents.Confirm(form.IntentID, params)
	if err != nil {
		return confirmError(err)
	}
	form.Status = string(pi.Status)

	target := redirectTarget
	if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil && pi.NextAction.RedirectToURL.URL != "" {
		target = pi.NextAction.RedirectToURL.URL
	}

	slog.Info("stripe payment confirmed, redirecting", "intent_id", form.IntentID, "status", pi.Status, "target", target)

	// The charge went through; a navigation problem must not look like a failed payment.
	err = s.navigator.Navigate(target)
	if err != nil {
		slog.Error("failed to navigate after confirmation", "error", err, "target", target)
	}
	return nil
}

func (s *StripeProvider) Unmount(form *Form) {
	if !form.Mounted() {
		return
	}
	form.Release()
	slog.Debug("stripe payment form unmounted", "intent_id", form.IntentID)
}

func confirmError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		isCard := stripeErr.Type == stripe.ErrorTypeCard
		isInput := stripeErr.Type == stripe.ErrorTypeInvalidRequest && stripeErr.Param == "payment_method"
		if (isCard || isInput) && stripeErr.Msg != "" {
			return &ValidationError{Code: string(stripeErr.Code), Message: stripeErr.Msg, Err: err}
		}
	}
	return fmt.Errorf("failed to confirm payment: %w", err)
}

// stripeLogger routes the SDK's own logging into slog.
type stripeLogger struct {
	debug bool
}

func (l *stripeLogger) Debugf(format string, v ...any) {
	if l.debug {
		slog.Debug("stripe: " + fmt.Sprintf(format, v...))
	}
}

func (l *stripeLogger) Infof(format string, v ...any) {
	if l.debug {
		slog.Info("stripe: " + fmt.Sprintf(format, v...))
	}
}

func (l *stripeLogger) Warnf(format string, v ...any) {
	slog.Warn("stripe: " + fmt.Sprintf(format, v...))
}

func (l *stripeLogger) Errorf(format string, v ...any) {
	slog.Error("stripe: " + fmt.Sprintf(format, v...))
}
