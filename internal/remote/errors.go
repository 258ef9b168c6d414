package remote

import (
	"errors"
	"fmt"
)

// Kind classifies store failures.
type Kind int

const (
	ConnectionUnavailable Kind = iota + 1
	PermissionDenied
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case ConnectionUnavailable:
		return "connection_unavailable"
	case PermissionDenied:
		return "permission_denied"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the failure type returned by every store backend.
// Message is human readable and surfaced verbatim to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrConnectionUnavailable = &Error{Kind: ConnectionUnavailable, Message: "connection unavailable"}
	ErrPermissionDenied      = &Error{Kind: PermissionDenied, Message: "permission denied"}
	ErrCancelled             = &Error{Kind: Cancelled, Message: "cancelled"}
)

// NewError wraps err with a kind and a message.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
