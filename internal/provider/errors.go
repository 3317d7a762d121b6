package provider

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hjkwon-github/docmost-codex/internal/domain"
)

// maxSnippet bounds how much of an upstream body is kept for diagnostics.
const maxSnippet = 512

// ErrInvalidResponse marks a success status whose body lacks the expected fields.
var ErrInvalidResponse = errors.New("invalid response format")

// StatusError is returned by adapters when the backend answers with a
// non-success HTTP status.
type StatusError struct {
	// Provider is the backend that answered, when the adapter knows it.
	Provider   domain.ProviderID
	StatusCode int
	// Message is the provider-reported error message, or the status text.
	Message string
	// Body is a bounded snippet of the raw response body.
	Body string
}

func (e *StatusError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// WithProvider records which backend answered.
func (e *StatusError) WithProvider(id domain.ProviderID) *StatusError {
	e.Provider = id
	return e
}

// Attribute tags a StatusError anywhere in err's chain with id and returns
// err unchanged otherwise.
func Attribute(err error, id domain.ProviderID) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Provider == "" {
		statusErr.Provider = id
	}
	return err
}

// NewStatusError builds a StatusError. An empty message falls back to the
// standard status text.
func NewStatusError(code int, message string, body []byte) *StatusError {
	if message == "" {
		message = http.StatusText(code)
	}
	return &StatusError{
		StatusCode: code,
		Message:    message,
		Body:       Snippet(body),
	}
}

// InvalidResponse wraps ErrInvalidResponse with provider context.
func InvalidResponse(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidResponse, fmt.Sprintf(format, args...))
}

// Snippet returns at most maxSnippet bytes of body.
func Snippet(body []byte) string {
	if len(body) > maxSnippet {
		return string(body[:maxSnippet]) + "..."
	}
	return string(body)
}
