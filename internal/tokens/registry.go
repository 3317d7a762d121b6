// Package tokens estimates prompt sizes for logging and diagnostics.
package tokens

import (
	"strings"

	"github.com/hjkwon-github/docmost-codex/internal/domain"
)

// Count is the size of a prompt in tokens.
type Count struct {
	Tokens int
	// Estimated is true when no real tokenizer for the model was available.
	Estimated bool
}

// Counter counts prompt tokens for the models it supports.
type Counter interface {
	Count(model string, messages []domain.Message) (Count, error)
	SupportsModel(model string) bool
}

// Registry picks the first registered counter supporting a model and falls
// back to the character estimator.
type Registry struct {
	counters []Counter
	fallback Counter
}

// NewRegistry creates a registry with the tiktoken counter for OpenAI models.
func NewRegistry() *Registry {
	return &Registry{
		counters: []Counter{NewOpenAICounter()},
		fallback: NewEstimator(),
	}
}

// Count counts with the best counter for model. Counter failures degrade to
// the estimate; counting never fails a request.
func (r *Registry) Count(model string, messages []domain.Message) Count {
	for _, counter := range r.counters {
		if counter.SupportsModel(model) {
			if c, err := counter.Count(model, messages); err == nil {
				return c
			}
			break
		}
	}
	c, _ := r.fallback.Count(model, messages)
	return c
}

// Estimator approximates token counts from character length.
type Estimator struct {
	// CharsPerToken is the average characters per token (default: 4)
	CharsPerToken float64
}

// NewEstimator creates a new token estimator.
func NewEstimator() *Estimator {
	return &Estimator{
		CharsPerToken: 4.0,
	}
}

func (e *Estimator) Count(_ string, messages []domain.Message) (Count, error) {
	totalChars := 0
	for _, msg := range messages {
		totalChars += len(msg.Role)
		totalChars += len(msg.Content)
		totalChars += 4 // role separators
	}

	return Count{
		Tokens:    int(float64(totalChars) / e.CharsPerToken),
		Estimated: true,
	}, nil
}

// SupportsModel returns true; the estimator is the universal fallback.
func (e *Estimator) SupportsModel(string) bool {
	return true
}

// ModelMatcher helps match model names to provider patterns.
type ModelMatcher struct {
	prefixes []string
	exact    []string
}

// NewModelMatcher creates a new model matcher.
func NewModelMatcher(prefixes, exact []string) *ModelMatcher {
	return &ModelMatcher{
		prefixes: prefixes,
		exact:    exact,
	}
}

// Matches returns true if the model matches any pattern.
func (m *ModelMatcher) Matches(model string) bool {
	for _, e := range m.exact {
		if model == e {
			return true
		}
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
