package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"9.99", 999},
		{"10", 1000},
		{"10.5", 1050},
		{".5", 50},
		{"$4.99", 499},
		{" 0.01 ", 1},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			require.NoError(t, err)
			assert.Equal(t, Price{Amount: tt.want, Currency: "usd"}, got)
		})
	}
}

func TestParsePrice_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "-1", "1.999", "1.", "abc", "1.x"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePrice(in)
			assert.ErrorIs(t, err, ErrInvalidPrice)
		})
	}
}

func TestPriceFormat(t *testing.T) {
	assert.Equal(t, "$9.99", Price{Amount: 999, Currency: "usd"}.Format())
	assert.Equal(t, "$1,299.00", Price{Amount: 129900, Currency: "usd"}.Format())
	assert.Equal(t, "€0.50", Price{Amount: 50, Currency: "EUR"}.Format())
	assert.Equal(t, "9.99", Price{Amount: 999}.Decimal())
	assert.Equal(t, "0.05", Price{Amount: 5}.Decimal())
	assert.True(t, Price{}.IsZero())
}

func TestIntentIDFromSecret(t *testing.T) {
	assert.Equal(t, "pi_123", IntentIDFromSecret("pi_123_secret_abc"))
	assert.Equal(t, "sec_abc", IntentIDFromSecret("sec_abc"))
}

func TestLinkedAccountString(t *testing.T) {
	a := LinkedAccount{InstitutionName: "Chase", AccountName: "Plaid Checking", AccountMask: "0000"}
	assert.Equal(t, "Chase - Plaid Checking (0000)", a.String())
}
