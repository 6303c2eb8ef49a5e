package model

import "strings"

const (
	ProviderStripe = "stripe"
)

// PaymentIntentHandle is the server-issued handle for one purchase attempt.
// The client secret is valid for a single attempt and must not be reused.
type PaymentIntentHandle struct {
	ContentID    string
	ClientSecret string
	IntentID     string
	Price        *Price // Echoed by the backend, informational only
}

// IntentIDFromSecret extracts "pi_123" from a client secret shaped "pi_123_secret_abc".
// Secrets that do not follow the provider format are returned unchanged.
func IntentIDFromSecret(secret string) string {
	id, _, found := strings.Cut(secret, "_secret_")
	if !found {
		return secret
	}
	return id
}

// PaymentSource describes the linked bank account or card of the current user.
type PaymentSource struct {
	HasSource       bool
	InstitutionName string
	AccountName     string
	AccountMask     string
}

// Session is what the hosting page knows about the current user.
// Source is nil when the page never defined the payment-source flag.
type Session struct {
	Authenticated bool
	Source        *PaymentSource
}

// LinkedAccount is the metadata sent along with a public token after linking.
type LinkedAccount struct {
	InstitutionName string `json:"institution_name"`
	AccountName     string `json:"account_name"`
	AccountMask     string `json:"account_mask"`
}

func (a LinkedAccount) String() string {
	return a.InstitutionName + " - " + a.AccountName + " (" + a.AccountMask + ")"
}
