// Package router validates chat requests, decides which provider serves
// them and dispatches exactly one adapter call.
package router

import (
	"log/slog"

	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/provider/huggingface"
	"github.com/hjkwon-github/docmost-codex/internal/provider/openai"
)

// ModelIndex attributes model ids to providers, typically from the most
// recent catalog listing.
type ModelIndex interface {
	Lookup(modelID string) (domain.ProviderID, bool)
}

// Reason records which rule produced a routing decision.
type Reason string

const (
	ReasonExplicit    Reason = "explicit"
	ReasonStatic      Reason = "static"
	ReasonPlaceholder Reason = "placeholder"
	ReasonCatalog     Reason = "catalog"
	ReasonFallback    Reason = "fallback"
)

// Decision represents a routing decision.
type Decision struct {
	Provider domain.ProviderID
	// Model is forwarded to the adapter; empty means the adapter's default.
	Model  string
	Reason Reason
}

// Router chooses a provider for a chat request.
type Router struct {
	index  ModelIndex
	logger *slog.Logger
}

// New creates a router. index may be nil.
func New(index ModelIndex, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{index: index, logger: logger}
}

// Decide returns the routing decision for a validated request.
func (r *Router) Decide(req domain.ChatRequest) (*Decision, error) {
	if req.Provider != "" {
		if !req.Provider.Valid() {
			return nil, domain.ErrInvalidRequest("unknown provider %q", req.Provider)
		}
		return &Decision{Provider: req.Provider, Reason: ReasonExplicit}, nil
	}

	id, reason := r.Resolve(req.ModelID)
	return &Decision{Provider: id, Model: req.ModelID, Reason: reason}, nil
}

// Resolve infers the provider for a model id. Rules, first match wins:
// the commercial static ids, the hosted-open placeholder, the index, and
// finally self-hosted for anything unrecognized.
//
// The catalog only lists static ids, the placeholder and discovered
// self-hosted models, so with it as the index the route is the same for a hit
// and a miss. A hit marks the id as one the backend advertised; a miss is
// logged at WARN so typos in model ids show up.
func (r *Router) Resolve(modelID string) (domain.ProviderID, Reason) {
	switch {
	case openai.IsModel(modelID):
		return domain.ProviderHostedCommercial, ReasonStatic
	case modelID == huggingface.PlaceholderModel.ID:
		return domain.ProviderHostedOpen, ReasonPlaceholder
	}

	if r.index != nil {
		if id, ok := r.index.Lookup(modelID); ok {
			return id, ReasonCatalog
		}
	}

	r.logger.Warn("unrecognized model routed to self-hosted", slog.String("model", modelID))
	return domain.ProviderSelfHosted, ReasonFallback
}
