package linking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/status"
)

// Result is what the linking widget hands back once the user picked an account.
type Result struct {
	PublicToken string
	Account     model.LinkedAccount
}

// ExitError means the user left the widget without linking an account.
type ExitError struct {
	Code           string
	Message        string
	DisplayMessage string
	Status         string
}

func (e *ExitError) Error() string {
	var b strings.Builder
	b.WriteString("Plaid Link exited.")

	reason := e.Message
	if reason == "" {
		reason = e.DisplayMessage
	}
	if reason == "" {
		reason = e.Code
	}
	if reason != "" {
		b.WriteString(" Error: " + reason)
	}
	if e.Status != "" {
		b.WriteString(" Status: " + e.Status)
	}
	return b.String()
}

// Linker opens the bank-linking widget for a link token and blocks until the user is done.
type Linker interface {
	OpenLink(ctx context.Context, linkToken string) (Result, error)
}

// Tokens is the backend side of linking.
type Tokens interface {
	CreateLinkToken(ctx context.Context) (string, error)
	SetPaymentMethod(ctx context.Context, publicToken string, account model.LinkedAccount) (string, error)
}

// Flow connects a bank account as the user's payment source.
type Flow struct {
	tokens Tokens
	linker Linker
}

func NewFlow(tokens Tokens, linker Linker) *Flow {
	return &Flow{tokens: tokens, linker: linker}
}

// Run walks the user through linking and reports every step on reporter.
// The returned error is the one already shown to the user.
func (f *Flow) Run(ctx context.Context, reporter status.Reporter) (*model.LinkedAccount, error) {
	reporter.Report(status.Info, "Initiating Plaid Link...")

	linkToken, err := f.tokens.CreateLinkToken(ctx)
	if err != nil {
		slog.Error("failed to create link token", "error", err)
		reporter.Report(status.Error, "Error: "+err.Error())
		return nil, err
	}

	reporter.Report(status.Info, "Link token received. Initializing Plaid...")

	result, err := f.linker.OpenLink(ctx, linkToken)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			slog.Warn("link widget exited", "code", exitErr.Code, "status", exitErr.Status)
			reporter.Report(status.Error, exitErr.Error())
			return nil, err
		}
		slog.Error("link widget failed", "error", err)
		reporter.Report(status.Error, "Error: "+err.Error())
		return nil, err
	}

	reporter.Report(status.Success, "Success! Account connected: "+result.Account.String())
	reporter.Report(status.Info, "Processing payment method...")

	message, err := f.tokens.SetPaymentMethod(ctx, result.PublicToken, result.Account)
	if err != nil {
		slog.Error("failed to set payment method", "error", err)
		reporter.Report(status.Error, "Error setting payment method: "+err.Error())
		return nil, fmt.Errorf("set payment method: %w", err)
	}

	reporter.Report(status.Success, message)
	return &result.Account, nil
}
