package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/mavericksstream/unlock/internal/model"
)

type Config struct {
	// Application
	AppEnv string
	AppURL string // Base URL the provider redirects back to after confirmation
	APIURL string // Backend serving /payments and /videos

	// Page environment (injected by the hosting page in the browser build)
	AccessToken       string
	HasPaymentSource  *bool // nil: flag never defined, treated as not logged in
	SourceInstitution string
	SourceAccountName string
	SourceAccountMask string

	// Payment
	PaymentProvider      string // only "stripe" for now
	StripePublishableKey string
	StripeAPIURL         string // Optional: override for stripe-mock or tests
	StripePaymentMethod  string // Optional: prefilled payment method for the terminal form

	// Network
	HTTPTimeout        time.Duration // 0: no bound
	StepTimeout        time.Duration // 0: no bound
	BreakerMaxFailures uint32
	BreakerOpenFor     time.Duration

	// Attempt journal (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Observability (optional)
	SentryDSN string
	Debug     bool
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppEnv: envString("APP_ENV", "development"),
		AppURL: envString("APP_URL", "http://localhost:5000"),
		APIURL: envRequired("API_URL"),

		// Page environment
		AccessToken:       envString("ACCESS_TOKEN", ""),
		HasPaymentSource:  envOptionalBool("HAS_PAYMENT_SOURCE"),
		SourceInstitution: envString("PAYMENT_SOURCE_INSTITUTION", ""),
		SourceAccountName: envString("PAYMENT_SOURCE_ACCOUNT", ""),
		SourceAccountMask: envString("PAYMENT_SOURCE_MASK", ""),

		// Payment
		PaymentProvider:      envString("PAYMENT_PROVIDER", model.ProviderStripe),
		StripePublishableKey: envString("STRIPE_PUBLISHABLE_KEY", ""),
		StripeAPIURL:         envString("STRIPE_API_URL", ""),
		StripePaymentMethod:  envString("STRIPE_PAYMENT_METHOD", ""),

		// Network
		HTTPTimeout:        envDuration("HTTP_TIMEOUT", 0),
		StepTimeout:        envDuration("STEP_TIMEOUT", 0),
		BreakerMaxFailures: envUint32("BREAKER_MAX_FAILURES", 5),
		BreakerOpenFor:     envDuration("BREAKER_OPEN_FOR", 30*time.Second),

		// Journal
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/unlock.db?_pragma=journal_mode(WAL)"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
		Debug:     envBool("DEBUG", false),
	}

	return cfg
}

// Session derives the capabilities the unlock flow checks before touching the network.
// A missing payment-source flag means the page did not know the user, so the session is
// unauthenticated even when a token is present.
func (c *Config) Session(now time.Time) model.Session {
	session := model.Session{
		Authenticated: tokenUsable(c.AccessToken, now),
	}
	if c.HasPaymentSource != nil {
		session.Source = &model.PaymentSource{
			HasSource:       *c.HasPaymentSource,
			InstitutionName: c.SourceInstitution,
			AccountName:     c.SourceAccountName,
			AccountMask:     c.SourceAccountMask,
		}
	}
	return session
}

// tokenUsable reports whether the stored access token looks like a live session.
// The signature is not checked: the client never holds the signing key, the backend does.
func tokenUsable(token string, now time.Time) bool {
	token = strings.TrimSpace(token)
	if token == "" || token == "null" {
		return false
	}

	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		slog.Debug("access token is not a jwt", "error", err)
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(now)
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

// envOptionalBool keeps "unset" apart from "false".
func envOptionalBool(key string) *bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, treating as unset", "key", key, "value", v)
		return nil
	}
	return &b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envUint32(key string, def uint32) uint32 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		slog.Warn("config invalid number, using default", "key", key, "value", v, "default", def)
		return def
	}
	return uint32(n)
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
