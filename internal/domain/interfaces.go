package domain

import (
	"context"
)

// Adapter translates a normalized chat call into one provider's wire format.
type Adapter interface {
	ID() ProviderID

	// Call sends the conversation and returns the extracted reply text.
	// modelID may be empty, in which case the adapter uses its default model.
	// Adapters never retry and never normalize their errors.
	Call(ctx context.Context, messages []Message, modelID string) (string, error)
}

// ModelLister is implemented by adapters whose backend can enumerate its own models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelDescriptor, error)
}
