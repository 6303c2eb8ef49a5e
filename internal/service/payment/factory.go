package payment

import (
	"fmt"
	"log/slog"

	"github.com/mavericksstream/unlock/internal/config"
	"github.com/mavericksstream/unlock/internal/model"
)

// NewProvider creates a payment provider based on configuration
func NewProvider(cfg *config.Config, collector DetailsCollector, navigator Navigator) (Provider, error) {
	provider := cfg.PaymentProvider

	slog.Debug("initializing payment provider", "provider", provider)

	switch provider {
	case model.ProviderStripe:
		if cfg.StripePublishableKey == "" {
			return nil, fmt.Errorf("%w: STRIPE_PUBLISHABLE_KEY is required when using Stripe provider", ErrUnavailable)
		}
		return NewStripeProvider(StripeOptions{
			PublishableKey: cfg.StripePublishableKey,
			APIURL:         cfg.StripeAPIURL,
			Debug:          cfg.Debug,
		}, collector, navigator), nil

	default:
		return nil, fmt.Errorf("%w: unknown payment provider: %s (supported: stripe)", ErrUnavailable, provider)
	}
}
