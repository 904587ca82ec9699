package moderation

import (
	"errors"
	"net/http"
)

// Error kinds. Compare with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
)

// Error is returned by every moderation operation that fails for a reason the
// caller can act on.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func validationErr(msg string) error   { return &Error{Kind: ErrValidation, Message: msg} }
func forbiddenErr(msg string) error    { return &Error{Kind: ErrForbidden, Message: msg} }
func notFoundErr(msg string) error     { return &Error{Kind: ErrNotFound, Message: msg} }
func invalidStateErr(msg string) error { return &Error{Kind: ErrInvalidState, Message: msg} }

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Code maps an error to the machine readable code sent to clients.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	}
	return "INTERNAL_ERROR"
}
