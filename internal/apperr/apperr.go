// Package apperr defines the error taxonomy shared by the API boundary.
// Errors carry a kind, the HTTP status it maps to, and an operational flag
// that decides whether the message is safe to show to clients.
package apperr

import (
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"
	KindAuthentication  Kind = "AUTHENTICATION_ERROR"
	KindAuthorization   Kind = "AUTHORIZATION_ERROR"
	KindNotFound        Kind = "NOT_FOUND"
	KindRateLimit       Kind = "RATE_LIMIT_ERROR"
	KindExternalService Kind = "EXTERNAL_SERVICE_ERROR"
)

// statusByKind maps each kind to its HTTP status. Exhaustive; anything
// outside the taxonomy is a 500.
var statusByKind = map[Kind]int{
	KindValidation:      http.StatusBadRequest,
	KindAuthentication:  http.StatusUnauthorized,
	KindAuthorization:   http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindRateLimit:       http.StatusTooManyRequests,
	KindExternalService: http.StatusBadGateway,
}

// Error is a tagged application error.
type Error struct {
	Kind        Kind
	Message     string
	Details     any
	Operational bool
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status for the error's kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Validation builds a 400 validation error with optional details.
func Validation(message string, details any) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details, Operational: true}
}

// Authentication builds a 401 error.
func Authentication(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return &Error{Kind: KindAuthentication, Message: message, Operational: true}
}

// Authorization builds a 403 error. Reserved; no current flow emits it.
func Authorization(message string) *Error {
	if message == "" {
		message = "Insufficient permissions"
	}
	return &Error{Kind: KindAuthorization, Message: message, Operational: true}
}

// NotFound builds a 404 error for the named resource.
func NotFound(resource string) *Error {
	if resource == "" {
		resource = "Resource"
	}
	return &Error{Kind: KindNotFound, Message: resource + " not found", Operational: true}
}

// RateLimit builds a 429 error. Reserved; no current flow emits it.
func RateLimit(message string) *Error {
	if message == "" {
		message = "Too many requests"
	}
	return &Error{Kind: KindRateLimit, Message: message, Operational: true}
}

// ExternalService builds a 502 wrapping a downstream failure. The service
// name is part of the client-visible message; the cause is not.
func ExternalService(service string, cause error) *Error {
	msg := service + " service error"
	if cause != nil {
		msg += ": " + eris.Cause(cause).Error()
	} else {
		msg += ": unknown error"
	}
	return &Error{Kind: KindExternalService, Message: msg, Operational: true, cause: cause}
}

// StatusCode returns the HTTP status for any error: the tagged status for
// an *Error in the chain, 500 otherwise.
func StatusCode(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status()
	}
	return http.StatusInternalServerError
}

// ClientMessage returns a message safe to send to clients. Operational
// errors surface their own message; anything else surfaces a generic one
// in production and the real message otherwise.
func ClientMessage(err error, production bool) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Operational {
		return ae.Message
	}
	if err != nil && !production {
		return err.Error()
	}
	return "An unexpected error occurred"
}

// IsKind reports whether any error in the chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
