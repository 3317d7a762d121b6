// Package domain provides the gateway's canonical types and error taxonomy.
package domain

import (
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of failure categories callers may branch on.
type ErrorKind string

const (
	// ErrorKindAuthFailed indicates the provider rejected the credentials.
	ErrorKindAuthFailed ErrorKind = "auth_failed"

	// ErrorKindRateLimited indicates the provider throttled the request.
	ErrorKindRateLimited ErrorKind = "rate_limited"

	// ErrorKindUnavailable indicates a connection failure, timeout or 5xx.
	ErrorKindUnavailable ErrorKind = "unavailable"

	// ErrorKindModelNotFound indicates the requested model does not exist.
	ErrorKindModelNotFound ErrorKind = "model_not_found"

	// ErrorKindInvalidResponse indicates a success status with an unusable body.
	ErrorKindInvalidResponse ErrorKind = "invalid_response"

	// ErrorKindUnknown is anything that could not be classified.
	ErrorKindUnknown ErrorKind = "unknown"

	// ErrorKindInvalidRequest indicates the request was rejected before any
	// network call (validation or configuration).
	ErrorKindInvalidRequest ErrorKind = "invalid_request"

	// ErrorKindCancelled signals caller cancellation. It sits outside the
	// provider failure taxonomy and is never retried.
	ErrorKindCancelled ErrorKind = "cancelled"
)

// Error is the only error shape that crosses the gateway boundary.
type Error struct {
	// Kind is the category of failure
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Retryable reports whether repeating the call may succeed
	Retryable bool `json:"retryable"`

	// Provider is the backend that failed, if any (diagnostics only)
	Provider ProviderID `json:"provider,omitempty"`

	// StatusCode is the upstream HTTP status, if any (diagnostics only)
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// HTTPStatusCode returns the status the inbound API answers with for this error.
func (e *Error) HTTPStatusCode() int {
	switch e.Kind {
	case ErrorKindInvalidRequest:
		return http.StatusBadRequest
	case ErrorKindAuthFailed:
		return http.StatusUnauthorized
	case ErrorKindModelNotFound:
		return http.StatusNotFound
	case ErrorKindRateLimited:
		return http.StatusTooManyRequests
	case ErrorKindUnavailable:
		return http.StatusServiceUnavailable
	case ErrorKindInvalidResponse:
		return http.StatusBadGateway
	case ErrorKindCancelled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// StatusClientClosedRequest follows the nginx convention for a caller that
// went away before the reply was ready.
const StatusClientClosedRequest = 499

// NewError creates a normalized error. Retryability is derived from the kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Retryable: kind == ErrorKindRateLimited || kind == ErrorKindUnavailable,
	}
}

// WithProvider records which backend failed.
func (e *Error) WithProvider(p ProviderID) *Error {
	e.Provider = p
	return e
}

// WithStatusCode records the upstream HTTP status.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// Convenience constructors for common errors

// ErrInvalidRequest creates a validation error.
func ErrInvalidRequest(format string, args ...any) *Error {
	return NewError(ErrorKindInvalidRequest, fmt.Sprintf(format, args...))
}

// ErrAuthFailed creates an authentication error.
func ErrAuthFailed(message string) *Error {
	return NewError(ErrorKindAuthFailed, message)
}

// ErrRateLimited creates a rate limit error.
func ErrRateLimited(message string) *Error {
	return NewError(ErrorKindRateLimited, message)
}

// ErrUnavailable creates an availability error.
func ErrUnavailable(message string) *Error {
	return NewError(ErrorKindUnavailable, message)
}

// ErrModelNotFound creates a model-not-found error.
func ErrModelNotFound(message string) *Error {
	return NewError(ErrorKindModelNotFound, message)
}

// ErrInvalidResponse creates an invalid response error.
func ErrInvalidResponse(message string) *Error {
	return NewError(ErrorKindInvalidResponse, message)
}

// ErrUnknown creates an unclassified error.
func ErrUnknown(message string) *Error {
	return NewError(ErrorKindUnknown, message)
}

// ErrCancelled creates a cancellation error.
func ErrCancelled(message string) *Error {
	return NewError(ErrorKindCancelled, message)
}
