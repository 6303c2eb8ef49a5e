package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mavericksstream/unlock/internal/linking"
	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/service/payment"
	"github.com/mavericksstream/unlock/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTerminal(input string, opts TerminalOptions) (*Terminal, *bytes.Buffer) {
	var out bytes.Buffer
	return NewTerminal(strings.NewReader(input), &out, opts), &out
}

func TestSurface(t *testing.T) {
	term, out := newTestTerminal("", TerminalOptions{})
	item := model.ContentItem{ID: "42", Title: "Cats", Price: model.Price{Amount: 999, Currency: "usd"}}

	surface := term.Surface(item)
	surface.Report(status.Info, "Processing unlock...")
	surface.Report(status.Error, "Error: db down")
	surface.ShowInitiate(true)
	surface.ShowInitiate(false)

	form := payment.NewForm("pi_1", "pi_1_secret_x", "payment-form-42")
	form.Amount = 999
	form.Currency = "usd"
	surface.ShowPaymentForm(form)

	assert.Equal(t, strings.Join([]string{
		"[Cats] Processing unlock...",
		"[Cats] error: Error: db down",
		"[Cats] Unlock available for $9.99",
		"[Cats] Payment form ready (pi_1): $9.99",
		"",
	}, "\n"), out.String())

	assert.False(t, term.ConfirmEnabled("42"))
	surface.SetConfirmEnabled(true)
	assert.True(t, term.ConfirmEnabled("42"))
	assert.False(t, term.ConfirmEnabled("7"))
	surface.SetConfirmEnabled(false)
	assert.False(t, term.ConfirmEnabled("42"))
}

func TestAsk(t *testing.T) {
	term, out := newTestTerminal("y\nno\n", TerminalOptions{})

	ok, err := term.Ask(context.Background(), "Confirm payment?")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = term.Ask(context.Background(), "Confirm payment?")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = term.Ask(context.Background(), "Confirm payment?")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Contains(t, out.String(), "Confirm payment? [y/N]: ")
}

func TestCollectPaymentMethod(t *testing.T) {
	term, _ := newTestTerminal("pm_card_visa\n", TerminalOptions{PaymentMethod: "pm_card_chargeDeclined"})
	form := payment.NewForm("pi_1", "pi_1_secret_x", "payment-form-1")

	method, err := term.CollectPaymentMethod(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "pm_card_chargeDeclined", method)

	method, err = term.CollectPaymentMethod(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "pm_card_visa", method)

	method, err = term.CollectPaymentMethod(context.Background(), form)
	require.NoError(t, err)
	assert.Empty(t, method)
}

func TestCollectPaymentMethod_Canceled(t *testing.T) {
	term, _ := newTestTerminal("pm_card_visa\n", TerminalOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := term.CollectPaymentMethod(ctx, payment.NewForm("pi_1", "s", "c"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNavigate(t *testing.T) {
	term, out := newTestTerminal("", TerminalOptions{OpenBrowser: true})
	var opened []string
	term.openURL = func(url string) error {
		opened = append(opened, url)
		return nil
	}

	target := "http://localhost:5000/payments/payment-complete?video_id=42&payment_intent_client_secret=sec_abc"
	require.NoError(t, term.Navigate(target))

	assert.Equal(t, []string{target}, opened)
	assert.Equal(t, "Continue at: "+target+"\n", out.String())
}

func TestOpenLink(t *testing.T) {
	term, _ := newTestTerminal("public-sandbox-1\nChase\nPlaid Checking\n0000\n", TerminalOptions{})

	result, err := term.OpenLink(context.Background(), "link-sandbox-1")
	require.NoError(t, err)
	assert.Equal(t, linking.Result{
		PublicToken: "public-sandbox-1",
		Account:     model.LinkedAccount{InstitutionName: "Chase", AccountName: "Plaid Checking", AccountMask: "0000"},
	}, result)
}

func TestOpenLink_Cancel(t *testing.T) {
	term, _ := newTestTerminal("\n", TerminalOptions{})

	_, err := term.OpenLink(context.Background(), "link-sandbox-1")
	var exitErr *linking.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "Plaid Link exited. Status: user_exit", exitErr.Error())
}
