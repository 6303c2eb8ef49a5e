package unlock

import "fmt"

// Kind classifies why an unlock attempt failed.
type Kind int

const (
	KindNone Kind = iota
	AuthenticationRequired
	NoPaymentSource
	IntentCreationFailed
	ProviderValidationError
	ProviderUnexpectedError
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return ""
	case AuthenticationRequired:
		return "authentication_required"
	case NoPaymentSource:
		return "no_payment_source"
	case IntentCreationFailed:
		return "intent_creation_failed"
	case ProviderValidationError:
		return "provider_validation_error"
	case ProviderUnexpectedError:
		return "provider_unexpected_error"
	case Unavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// confirmable reports whether the mounted form may be submitted again after this failure.
func (k Kind) confirmable() bool {
	return k == ProviderValidationError || k == ProviderUnexpectedError
}

// Error is the terminal failure of one attempt. Message is what the user was shown.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Kind.String() + ": " + e.Message
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the bare sentinels below by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrAuthenticationRequired = &Error{Kind: AuthenticationRequired}
	ErrNoPaymentSource        = &Error{Kind: NoPaymentSource}
	ErrIntentCreationFailed   = &Error{Kind: IntentCreationFailed}
	ErrProviderValidation     = &Error{Kind: ProviderValidationError}
	ErrProviderUnexpected     = &Error{Kind: ProviderUnexpectedError}
	ErrProviderUnavailable    = &Error{Kind: Unavailable}
)

const (
	msgLoginRequired   = "Login required to unlock videos. Please log in."
	msgNoPaymentSource = "No payment method found. Please add a bank account in your profile."
	msgUnavailable     = "Payments are currently unavailable. Please try again later."
	msgUnexpected      = "An unexpected error occurred. Please try again."
	msgMissingSecret   = "Client secret not received for payment intent."
	msgProcessing      = "Processing unlock..."
	msgLoadingForm     = "Payment intent created. Loading payment form..."
	msgConfirming      = "Confirming payment..."
	msgRedirecting     = "Payment submitted. Redirecting to complete your unlock..."
)
