package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindPaymentRequired
	KindForbidden
	KindNotFound
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindPaymentRequired:
		return "payment_required"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is returned by service operations. Message is safe to show to the
// caller; Err carries the detail that only goes to the log.
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

// KindOf returns the kind of err, or KindInternal for errors that did not
// come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func forbiddenError() error {
	return &Error{Kind: KindForbidden, Message: "forbidden"}
}

func conflictError(msg string, err error) error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func unavailableError(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

func internalError(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
