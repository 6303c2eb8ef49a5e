package unlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mavericksstream/unlock/internal/ctxkeys"
	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/service/payment"
	"github.com/mavericksstream/unlock/internal/status"
)

// IntentCreator mints a payment intent for one content item.
type IntentCreator interface {
	CreateIntent(ctx context.Context, contentID string) (model.PaymentIntentHandle, error)
}

// Controls are the interactive elements that belong to one content item.
type Controls interface {
	// ShowInitiate shows or hides the unlock control
	ShowInitiate(visible bool)
	// ShowPaymentForm reveals the provider-rendered form and its confirm control
	ShowPaymentForm(form *payment.Form)
	// SetConfirmEnabled toggles the confirm control
	SetConfirmEnabled(enabled bool)
}

// Surface is the status area plus controls of one content item.
type Surface interface {
	status.Reporter
	Controls
}

// Page hands out the surface of a content item.
type Page interface {
	Surface(item model.ContentItem) Surface
}

// Transition is emitted on every state change of an attempt.
type Transition struct {
	AttemptID string
	ContentID string
	IntentID  string
	From      Status
	To        Status
	Kind      Kind
	Message   string
	Price     model.Price
	At        time.Time
}

// Observer receives transitions, e.g. to journal them.
type Observer interface {
	OnTransition(ctx context.Context, t Transition)
}

type Option func(*Orchestrator)

func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// WithStepTimeout bounds every network step. Zero (the default) leaves steps unbounded.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.stepTimeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator runs one unlock attempt per content item: intent creation, form mount,
// confirmation and failure handling. Attempts of different items never affect each other.
//
// Steps within one attempt are serialized through the attempt status; the mutex only guards
// the attempt records and is never held across a network call.
type Orchestrator struct {
	session     model.Session
	intents     IntentCreator
	provider    payment.Provider
	page        Page
	appURL      string
	observer    Observer
	stepTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	attempts map[string]*attempt
}

// New builds an orchestrator. provider may be nil when it failed to initialize; every
// initiate then ends in Unavailable without touching the network.
func New(session model.Session, intents IntentCreator, provider payment.Provider, page Page, appURL string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session:  session,
		intents:  intents,
		provider: provider,
		page:     page,
		appURL:   strings.TrimRight(appURL, "/"),
		now:      time.Now,
		attempts: make(map[string]*attempt),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// InitiateUnlock starts an attempt for item. It never returns an error: every outcome is
// reported on the item's surface. Calling it while an attempt for the same item is in
// flight does nothing.
func (o *Orchestrator) InitiateUnlock(ctx context.Context, item model.ContentItem) {
	surface := o.page.Surface(item)

	o.mu.Lock()
	prev := o.attempts[item.ID]
	if prev != nil && prev.status.busy() {
		o.mu.Unlock()
		slog.Debug("unlock already in progress, ignoring", "content_id", item.ID, "status", prev.status.String())
		return
	}

	a := &attempt{
		id:      uuid.New().String(),
		item:    item,
		surface: surface,
		status:  Idle,
	}
	o.attempts[item.ID] = a

	blocked := o.precondition()
	if blocked == nil {
		a.status = Initializing
	}
	o.mu.Unlock()

	if prev != nil && prev.form.Mounted() && o.provider != nil {
		o.provider.Unmount(prev.form)
	}

	ctx = ctxkeys.WithContentID(ctxkeys.WithAttemptID(ctx, a.id), item.ID)

	// Login and payment-source problems leave the controls as they were.
	if blocked != nil {
		o.fail(ctx, a, blocked.Kind, blocked.Message, nil, false)
		return
	}

	o.notify(ctx, a, Idle, Initializing, KindNone, msgProcessing)
	surface.Report(status.Info, msgProcessing)

	handle, err := o.createIntent(ctx, item.ID)
	if err != nil {
		o.fail(ctx, a, IntentCreationFailed, "Error: "+err.Error(), err, true)
		return
	}

	if !o.update(a, func() { a.intent = handle }) {
		return
	}
	surface.Report(status.Info, msgLoadingForm)

	form, err := o.mount(ctx, a)
	if err != nil {
		kind, msg := ProviderUnexpectedError, msgUnexpected
		if errors.Is(err, payment.ErrUnavailable) {
			kind, msg = Unavailable, msgUnavailable
		}
		o.fail(ctx, a, kind, msg, err, true)
		return
	}

	if !o.update(a, func() { a.status = AwaitingConfirmation }) {
		o.provider.Unmount(form)
		return
	}
	ready := "Enter your payment details and confirm to unlock"
	if price := o.displayPrice(a); !price.IsZero() {
		ready += " for " + price.Format()
	}
	ready += "."
	o.notify(ctx, a, Initializing, AwaitingConfirmation, KindNone, ready)

	surface.ShowPaymentForm(form)
	surface.SetConfirmEnabled(true)
	surface.ShowInitiate(false)
	surface.Report(status.Info, ready)
}

// Confirm submits the mounted form of the item's attempt. It is ignored unless the attempt
// is awaiting confirmation, or failed at the provider with its form still mounted.
func (o *Orchestrator) Confirm(ctx context.Context, contentID string) {
	o.mu.Lock()
	a := o.attempts[contentID]
	if a == nil || !a.form.Mounted() || !o.confirmableLocked(a) {
		o.mu.Unlock()
		slog.Debug("confirm ignored", "content_id", contentID)
		return
	}
	from := a.status
	a.status = Processing
	a.lastErr = nil
	form := a.form
	target := o.redirectTarget(contentID, a.intent)
	o.mu.Unlock()

	ctx = ctxkeys.WithContentID(ctxkeys.WithAttemptID(ctx, a.id), contentID)
	o.notify(ctx, a, from, Processing, KindNone, msgConfirming)

	a.surface.SetConfirmEnabled(false)
	a.surface.Report(status.Info, msgConfirming)

	stepCtx, cancel := o.stepContext(ctx)
	err := o.provider.Confirm(stepCtx, form, target)
	cancel()

	if err != nil {
		var validationErr *payment.ValidationError
		if errors.As(err, &validationErr) {
			o.fail(ctx, a, ProviderValidationError, validationErr.Message, err, true)
		} else {
			o.fail(ctx, a, ProviderUnexpectedError, msgUnexpected, err, true)
		}
		a.surface.SetConfirmEnabled(true)
		return
	}

	if !o.update(a, func() { a.status = Redirected }) {
		return
	}
	o.notify(ctx, a, Processing, Redirected, KindNone, target)
	slog.Info("unlock handed off to completion page", "content_id", contentID, "attempt_id", a.id)
	a.surface.Report(status.Info, msgRedirecting)
}

// Reset tears down the item's form and forgets its attempt, as leaving the page would.
// Results of steps still in flight for that attempt are dropped.
func (o *Orchestrator) Reset(contentID string) {
	o.mu.Lock()
	a := o.attempts[contentID]
	delete(o.attempts, contentID)
	o.mu.Unlock()

	if a != nil && a.form.Mounted() {
		o.provider.Unmount(a.form)
	}
}

// Attempt returns a snapshot of the item's current attempt.
func (o *Orchestrator) Attempt(contentID string) (Attempt, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.attempts[contentID]
	if !ok {
		return Attempt{}, false
	}
	return a.snapshot(), true
}

func (o *Orchestrator) precondition() *Error {
	if !o.session.Authenticated || o.session.Source == nil {
		return &Error{Kind: AuthenticationRequired, Message: msgLoginRequired}
	}
	if !o.session.Source.HasSource {
		return &Error{Kind: NoPaymentSource, Message: msgNoPaymentSource}
	}
	if o.provider == nil {
		return &Error{Kind: Unavailable, Message: msgUnavailable}
	}
	return nil
}

func (o *Orchestrator) confirmableLocked(a *attempt) bool {
	switch a.status {
	case AwaitingConfirmation:
		return true
	case Failed:
		return a.lastErr != nil && a.lastErr.Kind.confirmable()
	default:
		return false
	}
}

func (o *Orchestrator) createIntent(ctx context.Context, contentID string) (model.PaymentIntentHandle, error) {
	stepCtx, cancel := o.stepContext(ctx)
	defer cancel()

	handle, err := o.intents.CreateIntent(stepCtx, contentID)
	if err != nil {
		return model.PaymentIntentHandle{}, err
	}
	if strings.TrimSpace(handle.ClientSecret) == "" {
		return model.PaymentIntentHandle{}, errors.New(msgMissingSecret)
	}
	return handle, nil
}

// mount renders the form once per attempt.
func (o *Orchestrator) mount(ctx context.Context, a *attempt) (*payment.Form, error) {
	o.mu.Lock()
	existing := a.form
	secret := a.intent.ClientSecret
	o.mu.Unlock()

	if existing.Mounted() {
		return existing, nil
	}

	stepCtx, cancel := o.stepContext(ctx)
	defer cancel()

	form, err := o.provider.Mount(stepCtx, secret, containerID(a.item.ID))
	if err != nil {
		return nil, err
	}

	if !o.update(a, func() { a.form = form }) {
		o.provider.Unmount(form)
		return nil, fmt.Errorf("attempt %s superseded", a.id)
	}
	return form, nil
}

// update applies fn while a is still the item's current attempt.
func (o *Orchestrator) update(a *attempt, fn func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.attempts[a.item.ID] != a {
		slog.Debug("attempt superseded, dropping result", "content_id", a.item.ID, "attempt_id", a.id)
		return false
	}
	fn()
	return true
}

func (o *Orchestrator) fail(ctx context.Context, a *attempt, kind Kind, message string, cause error, restoreControls bool) {
	var from Status
	ok := o.update(a, func() {
		from = a.status
		a.status = Failed
		a.lastErr = &Error{Kind: kind, Message: message, Err: cause}
	})
	if !ok {
		return
	}

	slog.Warn("unlock attempt failed", "content_id", a.item.ID, "attempt_id", a.id, "kind", kind.String(), "error", cause)
	o.notify(ctx, a, from, Failed, kind, message)

	a.surface.Report(status.Error, message)
	if restoreControls {
		a.surface.ShowInitiate(true)
	}
}

func (o *Orchestrator) notify(ctx context.Context, a *attempt, from, to Status, kind Kind, message string) {
	if o.observer == nil {
		return
	}

	o.mu.Lock()
	t := Transition{
		AttemptID: a.id,
		ContentID: a.item.ID,
		IntentID:  a.intent.IntentID,
		From:      from,
		To:        to,
		Kind:      kind,
		Message:   message,
		Price:     o.displayPriceLocked(a),
		At:        o.now(),
	}
	o.mu.Unlock()

	o.observer.OnTransition(ctx, t)
}

func (o *Orchestrator) displayPrice(a *attempt) model.Price {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.displayPriceLocked(a)
}

// displayPriceLocked prefers the price the user clicked on and falls back to the backend's echo.
func (o *Orchestrator) displayPriceLocked(a *attempt) model.Price {
	if !a.item.Price.IsZero() || a.intent.Price == nil {
		return a.item.Price
	}
	return *a.intent.Price
}

func (o *Orchestrator) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.stepTimeout > 0 {
		return context.WithTimeout(ctx, o.stepTimeout)
	}
	return context.WithCancel(ctx)
}

// redirectTarget is where the provider sends the user once the payment is submitted.
func (o *Orchestrator) redirectTarget(contentID string, intent model.PaymentIntentHandle) string {
	return fmt.Sprintf("%s/payments/payment-complete?video_id=%s&payment_intent_client_secret=%s",
		o.appURL, url.QueryEscape(contentID), url.QueryEscape(intent.ClientSecret))
}

func containerID(contentID string) string {
	return "payment-form-" + contentID
}
