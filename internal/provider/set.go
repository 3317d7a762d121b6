package provider

import (
	"github.com/hjkwon-github/docmost-codex/internal/config"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
)

// Adapters maps each provider to the adapter that calls it.
type Adapters map[domain.ProviderID]domain.Adapter

func (a Adapters) Adapter(id domain.ProviderID) (domain.Adapter, bool) {
	adapter, ok := a[id]
	return adapter, ok
}

// Snapshot is one consistent view of the provider configuration and the
// adapters built from it. Resolve it once per operation so a concurrent
// reload cannot mix two configurations.
type Snapshot struct {
	Config   config.ProvidersConfig
	Adapters Adapters
}

// SnapshotSource returns the snapshot in effect at call time.
type SnapshotSource interface {
	Snapshot() Snapshot
}

// SnapshotFunc adapts a function to SnapshotSource.
type SnapshotFunc func() Snapshot

func (f SnapshotFunc) Snapshot() Snapshot { return f() }

// StaticSnapshot always returns s.
func StaticSnapshot(s Snapshot) SnapshotSource {
	return SnapshotFunc(func() Snapshot { return s })
}

// Require returns the adapter for id, or an invalid-request error when id is
// unknown or not configured in this snapshot.
func (s Snapshot) Require(id domain.ProviderID) (domain.Adapter, error) {
	if err := require(s.Config, id); err != nil {
		return nil, err
	}
	adapter, ok := s.Adapters.Adapter(id)
	if !ok {
		return nil, domain.ErrInvalidRequest("provider %s is not configured", id).WithProvider(id)
	}
	return adapter, nil
}
