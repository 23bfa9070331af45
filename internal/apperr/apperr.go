// Package apperr provides the error taxonomy shared by the match and interview
// services and its mapping onto transport status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the transport layer.
type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindAuthorization   Kind = "AUTHORIZATION"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindStorage         Kind = "STORAGE"
)

// Error is a user-facing error. Message is echoed to the caller; Err keeps
// the underlying cause for logs and for storage failures.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation is a malformed enum, a missing field or a bad time format.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_FAILED", Message: msg}
}

// Authorization is a wrong role or an action on someone else's resource.
func Authorization(msg string) *Error {
	return &Error{Kind: KindAuthorization, Code: "FORBIDDEN", Message: msg}
}

// Unauthenticated is a missing or invalid credential.
func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Code: "NOT_AUTHENTICATED", Message: msg}
}

// NotFound is a missing listing, interview, match or user.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: msg}
}

// Conflict is a transition the current state does not allow.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Code: "INVALID_STATE", Message: msg}
}

// Storage wraps an unexpected persistence failure.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Code: "STORAGE_FAILED", Message: op, Err: err}
}

// KindOf returns the kind of err, or KindStorage for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps an error onto its HTTP status. Conflicts are reported as
// 400 with a specific reason.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message is the caller-facing text. Storage errors include the driver text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindStorage && e.Err != nil {
			return e.Error()
		}
		return e.Message
	}
	return err.Error()
}

// CodeOf returns the machine-readable code, INTERNAL_ERROR when unclassified.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL_ERROR"
}
