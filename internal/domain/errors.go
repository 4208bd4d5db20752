package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failed session operation.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthenticationRequired
	KindOrderCreationFailed
	KindItemAttachFailed
	KindItemRemoveFailed
	KindAddressLookupFailed
	KindAddressIncomplete
	KindFinalizeFailed
	KindOrderNotFound
	KindPaymentConfirmationFailed
	KindLoginFailed
	KindRegistrationFailed
	KindPasswordResetFailed
	KindFetchFailed
)

var kindNames = map[Kind]string{
	KindUnknown:                   "Unknown",
	KindAuthenticationRequired:    "AuthenticationRequired",
	KindOrderCreationFailed:       "OrderCreationFailed",
	KindItemAttachFailed:          "ItemAttachFailed",
	KindItemRemoveFailed:          "ItemRemoveFailed",
	KindAddressLookupFailed:       "AddressLookupFailed",
	KindAddressIncomplete:         "AddressIncomplete",
	KindFinalizeFailed:            "FinalizeFailed",
	KindOrderNotFound:             "OrderNotFound",
	KindPaymentConfirmationFailed: "PaymentConfirmationFailed",
	KindLoginFailed:               "LoginFailed",
	KindRegistrationFailed:        "RegistrationFailed",
	KindPasswordResetFailed:       "PasswordResetFailed",
	KindFetchFailed:               "FetchFailed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Message is the plain-language text shown to the customer.
func (k Kind) Message() string {
	switch k {
	case KindAuthenticationRequired:
		return "You must be logged in to do that."
	case KindOrderCreationFailed:
		return "Could not create your order. Please try again."
	case KindItemAttachFailed:
		return "Could not add the product to your cart."
	case KindItemRemoveFailed:
		return "Could not remove the item from your cart."
	case KindAddressLookupFailed:
		return "Could not find an address for that postal code."
	case KindAddressIncomplete:
		return "Please fill in the complete delivery address."
	case KindFinalizeFailed:
		return "Could not finalize your order."
	case KindOrderNotFound:
		return "Order not found."
	case KindPaymentConfirmationFailed:
		return "Could not confirm your payment."
	case KindLoginFailed:
		return "Login failed. Check your email and password."
	case KindRegistrationFailed:
		return "Could not create your account."
	case KindPasswordResetFailed:
		return "Could not send the password reset email."
	case KindFetchFailed:
		return "Could not load the requested information."
	default:
		return "Something went wrong."
	}
}

// Route is where the customer should be sent after this kind of failure.
func (k Kind) Route() Route {
	if k == KindAuthenticationRequired {
		return RouteLogin
	}
	return RouteNone
}

// SessionError is returned by every failed coordinator operation.
type SessionError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *SessionError) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Is matches any *SessionError of the same kind, so the package sentinels
// work with errors.Is.
func (e *SessionError) Is(target error) bool {
	t, ok := target.(*SessionError)
	return ok && t.Kind == e.Kind
}

// NewError builds a SessionError for op.
func NewError(kind Kind, op string, err error) *SessionError {
	return &SessionError{Kind: kind, Op: op, Err: err}
}

// Sentinels for errors.Is.
var (
	ErrAuthenticationRequired    = &SessionError{Kind: KindAuthenticationRequired}
	ErrOrderCreationFailed       = &SessionError{Kind: KindOrderCreationFailed}
	ErrItemAttachFailed          = &SessionError{Kind: KindItemAttachFailed}
	ErrItemRemoveFailed          = &SessionError{Kind: KindItemRemoveFailed}
	ErrAddressLookupFailed       = &SessionError{Kind: KindAddressLookupFailed}
	ErrAddressIncomplete         = &SessionError{Kind: KindAddressIncomplete}
	ErrFinalizeFailed            = &SessionError{Kind: KindFinalizeFailed}
	ErrOrderNotFound             = &SessionError{Kind: KindOrderNotFound}
	ErrPaymentConfirmationFailed = &SessionError{Kind: KindPaymentConfirmationFailed}
	ErrLoginFailed               = &SessionError{Kind: KindLoginFailed}
	ErrRegistrationFailed        = &SessionError{Kind: KindRegistrationFailed}
	ErrPasswordResetFailed       = &SessionError{Kind: KindPasswordResetFailed}
	ErrFetchFailed               = &SessionError{Kind: KindFetchFailed}
)

// ErrItemNotInCart is wrapped by ItemRemoveFailed when the id is not in the
// local item list.
var ErrItemNotInCart = errors.New("item is not in the cart")

// Order status guards, wrapped by the failing operation's kind.
var (
	ErrOrderNotOpen      = errors.New("order is no longer open")
	ErrOrderNotFinalized = errors.New("order has not been finalized")
)

// KindOf extracts the kind of a SessionError anywhere in err's chain.
func KindOf(err error) Kind {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// NoticeLevel is the severity of a notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-visible message with an optional navigation hint.
type Notice struct {
	Level   NoticeLevel
	Message string
	Route   Route
}

// NoticeFor turns an operation error into the notice shown to the customer.
func NoticeFor(err error) Notice {
	kind := KindOf(err)
	return Notice{
		Level:   NoticeError,
		Message: kind.Message(),
		Route:   kind.Route(),
	}
}
