// Package apperr defines the error kinds surfaced by services and mapped
// onto HTTP responses by the api package.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindUpstream        Kind = "upstream"
	KindInternal        Kind = "internal"
)

// Error carries a user-safe Message; Err holds the underlying cause and is
// never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NotFound(msg string) *Error { return New(KindNotFound, msg, nil) }

func Validation(msg string) *Error { return New(KindValidation, msg, nil) }

func Validationf(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...), nil)
}

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg, nil) }

func Forbidden(msg string) *Error { return New(KindForbidden, msg, nil) }

func Upstream(msg string, err error) *Error { return New(KindUpstream, msg, err) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-safe message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}

// IsAuthorization reports whether err is either of the authorization kinds.
func IsAuthorization(err error) bool {
	k := KindOf(err)
	return k == KindUnauthenticated || k == KindForbidden
}

// Retryable reports whether the client may retry the same request as-is.
func Retryable(err error) bool {
	return KindOf(err) == KindUpstream
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
