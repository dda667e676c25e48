// Package apperror defines the typed errors services return to transports.
package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	NotFound
	Forbidden
	InvalidState
	Conflict
	ValidationError
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case InvalidState:
		return "invalid_state"
	case Conflict:
		return "conflict"
	case ValidationError:
		return "validation_error"
	case Unauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind onto a response code
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case InvalidState, Conflict:
		return http.StatusConflict
	case ValidationError:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperror.E(Conflict, ""))
// works as a kind check.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func E(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NewNotFound(what string) *Error { return E(NotFound, what+" not found") }
func NewForbidden(msg string) *Error { return E(Forbidden, msg) }
func NewInvalidState(msg string) *Error { return E(InvalidState, msg) }
func NewConflict(msg string) *Error { return E(Conflict, msg) }
func NewValidation(msg string) *Error { return E(ValidationError, msg) }
func NewUnauthorized(msg string) *Error { return E(Unauthorized, msg) }
func NewInternal(msg string, err error) *Error { return Wrap(Internal, msg, err) }

// KindOf returns the kind of the first *Error in the chain, Internal otherwise
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the client-safe message for err
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return "internal server error"
}
