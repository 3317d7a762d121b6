// Package provider decides which LLM backends are usable and defines the
// raw errors adapters report.
package provider

import (
	"github.com/hjkwon-github/docmost-codex/internal/config"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
)

// ConfigSource returns the provider configuration in effect at call time.
type ConfigSource func() config.ProvidersConfig

// Registry reports which providers are usable. It keeps no state of its own:
// every answer is computed from the snapshot the source returns.
type Registry struct {
	source ConfigSource
}

// NewRegistry creates a registry over the given configuration source.
func NewRegistry(source ConfigSource) *Registry {
	return &Registry{source: source}
}

// StaticSource wraps a fixed configuration snapshot.
func StaticSource(cfg config.ProvidersConfig) ConfigSource {
	return func() config.ProvidersConfig { return cfg }
}

// ListUsable returns the usable providers in stable order.
func (r *Registry) ListUsable() []domain.ProviderID {
	return Usable(r.source())
}

// IsUsable reports whether id is currently usable.
func (r *Registry) IsUsable(id domain.ProviderID) bool {
	return isUsable(r.source(), id)
}

// Require fails with an invalid-request error when id is unknown or not configured.
func (r *Registry) Require(id domain.ProviderID) error {
	return require(r.source(), id)
}

func require(cfg config.ProvidersConfig, id domain.ProviderID) error {
	if !id.Valid() {
		return domain.ErrInvalidRequest("unknown provider %q", id)
	}
	if !isUsable(cfg, id) {
		return domain.ErrInvalidRequest("provider %s is not configured", id).WithProvider(id)
	}
	return nil
}

// Usable is the pure usability test over a configuration snapshot.
func Usable(cfg config.ProvidersConfig) []domain.ProviderID {
	usable := make([]domain.ProviderID, 0, len(domain.AllProviders))
	for _, id := range domain.AllProviders {
		if isUsable(cfg, id) {
			usable = append(usable, id)
		}
	}
	return usable
}

func isUsable(cfg config.ProvidersConfig, id domain.ProviderID) bool {
	switch id {
	case domain.ProviderHostedCommercial:
		return cfg.OpenAI.APIKey != ""
	case domain.ProviderHostedOpen:
		return cfg.HuggingFace.APIKey != ""
	case domain.ProviderSelfHosted:
		return cfg.Local.BaseURL != ""
	}
	return false
}
