package api

import (
	"errors"
	"fmt"
)

// Kind classifies a request failure. The kind and HTTP status are fixed at
// construction time so callers never probe errors for optional attributes.
type Kind int

const (
	// KindTransient marks connection-level failures that were retried until
	// the budget ran out.
	KindTransient Kind = iota + 1
	// KindClientRejected marks 4xx responses that are never retried.
	KindClientRejected
	// KindServerError marks 5xx responses, surfaced after the retry budget
	// is exhausted.
	KindServerError
	// KindMalformedResponse marks non-JSON payloads where JSON was expected.
	KindMalformedResponse
)

// String returns a short label for logs.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindClientRejected:
		return "client_rejected"
	case KindServerError:
		return "server_error"
	case KindMalformedResponse:
		return "malformed_response"
	}
	return "unknown"
}

// Error is the failure type surfaced by the client. Status is zero when the
// failure happened below the HTTP layer.
type Error struct {
	Kind   Kind
	Status int
	Method string
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api: %s %s: %s (status %d)", e.Method, e.Path, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("api: %s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("api: %s %s: %s", e.Method, e.Path, e.Kind)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// Code returns the kind label, used by logging code that derives error codes.
func (e *Error) Code() string { return e.Kind.String() }

// KindOf extracts the Kind from err, or zero when err is not a client error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// StatusOf extracts the HTTP status from err when known.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsClientRejected reports whether err is a non-retriable 4xx rejection.
func IsClientRejected(err error) bool {
	return KindOf(err) == KindClientRejected
}

// IsRetryable reports whether the failure class is worth a later retry by the
// caller (the client itself has already exhausted its own budget).
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindServerError:
		return true
	}
	return false
}
