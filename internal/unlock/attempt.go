package unlock

import (
	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/service/payment"
)

// Status is the state of one unlock attempt.
type Status int

const (
	Idle Status = iota
	Initializing
	AwaitingConfirmation
	Processing
	// Succeeded is never assigned here: success is only known to the server after the redirect.
	Succeeded
	Failed
	// Redirected means the provider navigated away; the in-page attempt is abandoned.
	Redirected
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Processing:
		return "processing"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Redirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// busy reports whether a new initiate for the same item must be ignored.
func (s Status) busy() bool {
	switch s {
	case Initializing, AwaitingConfirmation, Processing, Redirected:
		return true
	default:
		return false
	}
}

// Attempt is a read-only snapshot of an unlock attempt.
type Attempt struct {
	ID          string
	ContentID   string
	Price       model.Price
	Intent      model.PaymentIntentHandle
	FormMounted bool
	Status      Status
	LastError   *Error
}

type attempt struct {
	id      string
	item    model.ContentItem
	surface Surface
	intent  model.PaymentIntentHandle
	form    *payment.Form
	status  Status
	lastErr *Error
}

func (a *attempt) snapshot() Attempt {
	return Attempt{
		ID:          a.id,
		ContentID:   a.item.ID,
		Price:       a.item.Price,
		Intent:      a.intent,
		FormMounted: a.form.Mounted(),
		Status:      a.status,
		LastError:   a.lastErr,
	}
}
