// Package errs contains the classified error taxonomy shared by the gateway,
// the response validators and the services.
package errs

import (
	"context"
	"errors"
	"fmt"
)

// Kind is a closed classification of API failures.
type Kind string

// Kinds surfaced by the gateway and validators.
const (
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindRateLimit       Kind = "RATE_LIMIT"
	KindConflict        Kind = "CONFLICT"
	KindInvalidResponse Kind = "INVALID_RESPONSE"
	KindInvalidJSON     Kind = "INVALID_JSON"
	KindFetchFailed     Kind = "FETCH_FAILED"
	KindNetwork         Kind = "NETWORK_ERROR"
	KindAborted         Kind = "ABORTED"

	// Client-side kinds raised before any request is sent.
	KindInvalidID     Kind = "INVALID_ID"
	KindDeleteFailed  Kind = "DELETE_FAILED"
	KindNotConfigured Kind = "NOT_CONFIGURED"
	KindValidation    Kind = "VALIDATION_ERROR"
)

// Error is a classified failure. Op names the operation ("messages.list"),
// Status carries the HTTP status when one was received.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// Sentinels for errors.Is checks at call sites.
var (
	// ErrUnauthorized indicates a 401: the session is gone.
	ErrUnauthorized = &Error{Kind: KindUnauthorized}

	// ErrForbidden indicates a 403: authenticated but not allowed.
	ErrForbidden = &Error{Kind: KindForbidden}

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = &Error{Kind: KindNotFound}

	// ErrRateLimited indicates a 429.
	ErrRateLimited = &Error{Kind: KindRateLimit}

	// ErrConflict indicates a 409 without a recoverable body.
	ErrConflict = &Error{Kind: KindConflict}

	// ErrInvalidResponse indicates a wrong content type or payload shape.
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}

	// ErrInvalidJSON indicates an unparseable body.
	ErrInvalidJSON = &Error{Kind: KindInvalidJSON}

	// ErrFetchFailed indicates any other non-2xx status.
	ErrFetchFailed = &Error{Kind: KindFetchFailed}

	// ErrNetwork indicates a transport failure (no response at all).
	ErrNetwork = &Error{Kind: KindNetwork}

	// ErrAborted indicates the request was cancelled by its caller.
	ErrAborted = &Error{Kind: KindAborted}

	// ErrInvalidID indicates an empty identifier was passed to a by-id call.
	ErrInvalidID = &Error{Kind: KindInvalidID}

	// ErrDeleteFailed indicates a delete returned an unexpected status.
	ErrDeleteFailed = &Error{Kind: KindDeleteFailed}

	// ErrNotConfigured indicates the API base URL is missing.
	ErrNotConfigured = &Error{Kind: KindNotConfigured}

	// ErrValidation indicates client-side input validation failed.
	ErrValidation = &Error{Kind: KindValidation}
)

// New builds a classified error for op.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// WithStatus builds a classified error carrying the HTTP status.
func WithStatus(kind Kind, op string, status int) *Error {
	return &Error{Kind: kind, Op: op, Status: status}
}

// Wrap classifies err under kind.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the classification of err. Context cancellation is reported
// as KindAborted even when it was not wrapped; unknown errors report "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindAborted
	}
	return ""
}

// IsAborted reports whether err is a cancellation that must stay silent.
func IsAborted(err error) bool {
	return KindOf(err) == KindAborted
}
