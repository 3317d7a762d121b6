// Package catalog aggregates the models every usable provider offers.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/provider"
	"github.com/hjkwon-github/docmost-codex/internal/provider/huggingface"
	"github.com/hjkwon-github/docmost-codex/internal/provider/openai"
)

// Discoverer is implemented by adapters that enumerate their models at
// runtime and can fall back to a configured listing.
type Discoverer interface {
	domain.ModelLister
	FallbackModels() []domain.ModelDescriptor
}

// Catalog lists models and remembers which provider the latest listing
// attributed each model id to.
type Catalog struct {
	snapshots provider.SnapshotSource
	logger    *slog.Logger

	mu    sync.RWMutex
	index map[string]domain.ProviderID
}

// New creates a catalog.
func New(snapshots provider.SnapshotSource, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		snapshots: snapshots,
		logger:    logger,
		index:     make(map[string]domain.ProviderID),
	}
}

// ListModels returns the models of every usable provider, grouped in provider
// order. Self-hosted discovery failures degrade to the configured default
// model; a well-formed listing is used as is, even when empty. Only caller cancellation is reported as an error.
func (c *Catalog) ListModels(ctx context.Context) ([]domain.ModelDescriptor, error) {
	snap := c.snapshots.Snapshot()
	models := []domain.ModelDescriptor{}

	for _, id := range provider.Usable(snap.Config) {
		switch id {
		case domain.ProviderHostedCommercial:
			models = append(models, openai.Models...)
		case domain.ProviderHostedOpen:
			models = append(models, huggingface.PlaceholderModel)
		case domain.ProviderSelfHosted:
			discovered, err := c.discover(ctx, snap)
			if err != nil {
				return nil, err
			}
			models = append(models, discovered...)
		}
	}

	c.remember(models)
	return models, nil
}

// Lookup returns the provider the most recent listing attributed modelID to.
func (c *Catalog) Lookup(modelID string) (domain.ProviderID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.index[modelID]
	return id, ok
}

func (c *Catalog) discover(ctx context.Context, snap provider.Snapshot) ([]domain.ModelDescriptor, error) {
	adapter, ok := snap.Adapters.Adapter(domain.ProviderSelfHosted)
	if !ok {
		return nil, nil
	}
	d, ok := adapter.(Discoverer)
	if !ok {
		return nil, nil
	}

	dctx := ctx
	if timeout := snap.Config.DiscoveryTimeout; timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	models, err := d.ListModels(dctx)
	if err == nil {
		// A well-formed listing is authoritative, even when empty.
		return models, nil
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, domain.ErrCancelled("model listing was cancelled")
	}

	fallback := d.FallbackModels()
	c.logger.Warn("self-hosted model discovery failed, using configured default",
		slog.String("error", err.Error()),
		slog.Int("fallback_models", len(fallback)))

	return fallback, nil
}

func (c *Catalog) remember(models []domain.ModelDescriptor) {
	index := make(map[string]domain.ProviderID, len(models))
	for _, m := range models {
		if _, seen := index[m.ID]; !seen {
			index[m.ID] = m.Provider
		}
	}

	c.mu.Lock()
	c.index = index
	c.mu.Unlock()
}
