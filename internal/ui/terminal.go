package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/cli/browser"
	"github.com/mavericksstream/unlock/internal/linking"
	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/service/payment"
	"github.com/mavericksstream/unlock/internal/status"
	"github.com/mavericksstream/unlock/internal/unlock"
)

type TerminalOptions struct {
	// PaymentMethod answers the first payment form without prompting (e.g. "pm_card_visa")
	PaymentMethod string
	// OpenBrowser opens navigation targets in the system browser
	OpenBrowser bool
}

// Terminal is the page the unlock flow renders into: one status line per update,
// prompts for the payment form and the linking widget.
type Terminal struct {
	mu            sync.Mutex
	in            *bufio.Reader
	out           io.Writer
	paymentMethod string
	openBrowser   bool
	openURL       func(url string) error

	stateMu sync.Mutex
	confirm map[string]bool
}

func NewTerminal(in io.Reader, out io.Writer, opts TerminalOptions) *Terminal {
	return &Terminal{
		in:            bufio.NewReader(in),
		out:           out,
		paymentMethod: strings.TrimSpace(opts.PaymentMethod),
		openBrowser:   opts.OpenBrowser,
		openURL:       browser.OpenURL,
		confirm:       make(map[string]bool),
	}
}

// Report prints an update that does not belong to a particular video.
func (t *Terminal) Report(severity status.Severity, message string) {
	t.println(prefix(severity) + message)
}

// Surface implements unlock.Page.
func (t *Terminal) Surface(item model.ContentItem) unlock.Surface {
	return &itemSurface{
		term: t,
		item: item,
		log:  status.Log{Attrs: []any{"content_id", item.ID}},
	}
}

// ConfirmEnabled reports whether the confirm control of a video is usable.
func (t *Terminal) ConfirmEnabled(contentID string) bool {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.confirm[contentID]
}

// Ask prints question and reports whether the answer starts with y. EOF counts as no.
func (t *Terminal) Ask(ctx context.Context, question string) (bool, error) {
	answer, err := t.prompt(ctx, question+" [y/N]: ")
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// CollectPaymentMethod implements payment.DetailsCollector. A preset payment method is used once;
// after a decline the user is prompted.
func (t *Terminal) CollectPaymentMethod(ctx context.Context, form *payment.Form) (string, error) {
	t.mu.Lock()
	preset := t.paymentMethod
	t.paymentMethod = ""
	t.mu.Unlock()

	if preset != "" {
		slog.Debug("using preset payment method", "intent_id", form.IntentID)
		return preset, nil
	}

	method, err := t.prompt(ctx, "Payment method (e.g. pm_card_visa): ")
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	return method, err
}

// Navigate implements payment.Navigator.
func (t *Terminal) Navigate(target string) error {
	t.println("Continue at: " + target)
	if !t.openBrowser {
		return nil
	}
	return t.openURL(target)
}

// OpenLink implements linking.Linker. The widget is replaced by prompts for what it would return.
func (t *Terminal) OpenLink(ctx context.Context, linkToken string) (linking.Result, error) {
	t.println("Plaid Link UI loaded.")
	t.println("Complete linking with link token " + linkToken + " and paste the results below.")

	publicToken, err := t.prompt(ctx, "Public token (empty to cancel): ")
	if err != nil && !errors.Is(err, io.EOF) {
		return linking.Result{}, err
	}
	if publicToken == "" {
		return linking.Result{}, &linking.ExitError{Status: "user_exit"}
	}

	var account model.LinkedAccount
	fields := []struct {
		label string
		dst   *string
	}{
		{"Institution name: ", &account.InstitutionName},
		{"Account name: ", &account.AccountName},
		{"Account mask: ", &account.AccountMask},
	}
	for _, f := range fields {
		value, err := t.prompt(ctx, f.label)
		if err != nil && !errors.Is(err, io.EOF) {
			return linking.Result{}, err
		}
		*f.dst = value
	}

	return linking.Result{PublicToken: publicToken, Account: account}, nil
}

func (t *Terminal) prompt(ctx context.Context, label string) (string, error) {
	err := ctx.Err()
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	_, err = fmt.Fprint(t.out, label)
	if err != nil {
		return "", err
	}

	type read struct {
		line string
		err  error
	}
	done := make(chan read, 1)
	go func() {
		line, err := t.in.ReadString('\n')
		done <- read{line, err}
	}()

	// An interrupted prompt leaves its reader goroutine behind.
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		line := strings.TrimSpace(r.line)
		if errors.Is(r.err, io.EOF) && line != "" {
			return line, nil
		}
		return line, r.err
	}
}

func (t *Terminal) println(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := fmt.Fprintln(t.out, line)
	if err != nil {
		slog.Error("terminal write failed", "error", err)
	}
}

func prefix(severity status.Severity) string {
	switch severity {
	case status.Success:
		return "ok: "
	case status.Error:
		return "error: "
	default:
		return ""
	}
}

// itemSurface is the status area and controls of one video.
type itemSurface struct {
	term *Terminal
	item model.ContentItem
	log  status.Log
}

func (s *itemSurface) label() string {
	if s.item.Title != "" {
		return s.item.Title
	}
	return "video " + s.item.ID
}

func (s *itemSurface) Report(severity status.Severity, message string) {
	s.log.Report(severity, message)
	s.term.println("[" + s.label() + "] " + prefix(severity) + message)
}

func (s *itemSurface) ShowInitiate(visible bool) {
	if !visible {
		return
	}
	line := "[" + s.label() + "] Unlock available"
	if !s.item.Price.IsZero() {
		line += " for " + s.item.Price.Format()
	}
	s.term.println(line)
}

func (s *itemSurface) ShowPaymentForm(form *payment.Form) {
	line := fmt.Sprintf("[%s] Payment form ready (%s)", s.label(), form.IntentID)
	if form.Amount > 0 {
		price := model.Price{Amount: form.Amount, Currency: form.Currency}
		line += ": " + price.Format()
	}
	s.term.println(line)
}

func (s *itemSurface) SetConfirmEnabled(enabled bool) {
	s.term.stateMu.Lock()
	defer s.term.stateMu.Unlock()
	s.term.confirm[s.item.ID] = enabled
}
