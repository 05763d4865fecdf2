package services

import (
	"errors"
	"fmt"

	"github.com/BadissRH/easypm/repositories"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	}
	return "internal"
}

// Error is the only error type services return to handlers. Message is safe to show to
// clients; Err carries the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind only, so errors.Is(err, ErrNotFound) holds for every not-found error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "unauthenticated"}
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrInternal        = &Error{Kind: KindInternal, Message: "internal error"}
)

func notFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func invalid(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// storeErr maps a repository error to a service error, reporting what for ErrNotFound.
func storeErr(what string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound(what)
	}
	return internal("failed to access "+what, err)
}

// KindOf returns the kind of a service error; anything else is internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
