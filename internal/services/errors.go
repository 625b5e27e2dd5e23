package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindConflict
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is returned by every service operation that fails. Message is safe
// to show to clients; Err is the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newValidationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func newAuthError(message string) error {
	return &Error{Kind: KindAuth, Message: message}
}

func newConflictError(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func newNotFoundError(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func newUnavailableError(message string) error {
	return &Error{Kind: KindUnavailable, Message: message}
}

func newInternalError(op string, err error) error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}
