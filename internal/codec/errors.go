// Package codec maps raw adapter and transport failures onto the gateway's
// error taxonomy and renders them for HTTP clients.
package codec

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/pkg/safehttp"
	"github.com/hjkwon-github/docmost-codex/internal/provider"
)

// ErrorResponse is the JSON body sent for every failed inbound request.
type ErrorResponse struct {
	StatusCode int              `json:"statusCode"`
	Timestamp  string           `json:"timestamp"`
	Message    string           `json:"message"`
	Kind       domain.ErrorKind `json:"kind"`
	Retryable  bool             `json:"retryable"`
}

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// KindNotFound labels inbound requests for something the gateway does not
// hold, such as an idle conversation. Normalize never produces it.
const KindNotFound domain.ErrorKind = "not_found"

// Normalize converts any error into a *domain.Error. It is pure: the same
// input always yields the same kind and message. Unknown results should be
// logged by the caller.
func Normalize(err error) *domain.Error {
	if err == nil {
		return nil
	}

	var domErr *domain.Error
	if errors.As(err, &domErr) {
		return domErr
	}

	if errors.Is(err, context.Canceled) {
		return domain.ErrCancelled("request was cancelled")
	}

	if errors.Is(err, safehttp.ErrBlockedAddress) {
		return domain.ErrInvalidRequest("provider endpoint is not allowed: %s", err.Error())
	}

	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) {
		return fromStatus(statusErr)
	}

	// A response arrived, so its body text must not be read as a transport
	// or credential signature.
	if errors.Is(err, provider.ErrInvalidResponse) || isDecodeError(err) {
		return domain.ErrInvalidResponse(err.Error())
	}

	// From here on no response was received.
	if isConnectionFailure(err) {
		return domain.ErrUnavailable(err.Error())
	}

	if kind := detectKindFromMessage(err.Error()); kind != "" {
		return domain.NewError(kind, err.Error())
	}

	return domain.ErrUnknown(err.Error())
}

func fromStatus(e *provider.StatusError) *domain.Error {
	code := e.StatusCode
	kind := domain.ErrorKindUnknown
	switch sig := detectKindFromMessage(e.Message); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden || sig == domain.ErrorKindAuthFailed:
		kind = domain.ErrorKindAuthFailed
	case code == http.StatusTooManyRequests || sig == domain.ErrorKindRateLimited:
		kind = domain.ErrorKindRateLimited
	case code == http.StatusNotFound || sig == domain.ErrorKindModelNotFound:
		kind = domain.ErrorKindModelNotFound
	case code >= http.StatusInternalServerError:
		kind = domain.ErrorKindUnavailable
	}
	norm := domain.NewError(kind, e.Message).WithStatusCode(code)
	if e.Provider != "" {
		norm.WithProvider(e.Provider)
	}
	return norm
}

// detectKindFromMessage classifies by the wording providers use when the
// status code alone is not conclusive.
func detectKindFromMessage(message string) domain.ErrorKind {
	msgLower := strings.ToLower(message)

	switch {
	case strings.Contains(msgLower, "api key") ||
		strings.Contains(msgLower, "unauthorized") ||
		strings.Contains(msgLower, "authentication"):
		return domain.ErrorKindAuthFailed

	case strings.Contains(msgLower, "rate limit") ||
		strings.Contains(msgLower, "too many requests"):
		return domain.ErrorKindRateLimited

	case strings.Contains(msgLower, "model not found") ||
		strings.Contains(msgLower, "does not exist"):
		return domain.ErrorKindModelNotFound
	}

	return ""
}

// isConnectionFailure reports failures where no response was received.
func isConnectionFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msgLower := strings.ToLower(err.Error())
	return strings.Contains(msgLower, "timeout") ||
		strings.Contains(msgLower, "timed out") ||
		strings.Contains(msgLower, "connect")
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// NewErrorResponse builds the body for a normalized error.
func NewErrorResponse(e *domain.Error, now time.Time) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: e.HTTPStatusCode(),
		Timestamp:  now.UTC().Format(timestampFormat),
		Message:    e.Message,
		Kind:       e.Kind,
		Retryable:  e.Retryable,
	}
}

// WriteError normalizes err and writes it as a JSON error response.
func WriteError(w http.ResponseWriter, err error) {
	writeResponse(w, NewErrorResponse(Normalize(err), time.Now()))
}

// WriteNotFound writes a 404 in the same body shape as WriteError.
func WriteNotFound(w http.ResponseWriter, message string) {
	writeResponse(w, &ErrorResponse{
		StatusCode: http.StatusNotFound,
		Timestamp:  time.Now().UTC().Format(timestampFormat),
		Message:    message,
		Kind:       KindNotFound,
	})
}

func writeResponse(w http.ResponseWriter, resp *ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
