package domain

import "slices"

// ProviderID identifies one of the interchangeable LLM backends.
type ProviderID string

const (
	// ProviderHostedCommercial is the hosted commercial API (OpenAI).
	ProviderHostedCommercial ProviderID = "hosted-commercial"

	// ProviderHostedOpen is the hosted open-model inference API (Hugging Face).
	ProviderHostedOpen ProviderID = "hosted-open"

	// ProviderSelfHosted is a local OpenAI-compatible inference server.
	ProviderSelfHosted ProviderID = "self-hosted"
)

// AllProviders lists every provider in the stable order used for listings.
var AllProviders = []ProviderID{
	ProviderHostedCommercial,
	ProviderHostedOpen,
	ProviderSelfHosted,
}

// Valid reports whether p is a member of the closed provider set.
func (p ProviderID) Valid() bool {
	return slices.Contains(AllProviders, p)
}

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message represents a chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ModelDescriptor describes a selectable model within a provider.
// IDs are unique within a provider, not globally.
type ModelDescriptor struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Provider ProviderID `json:"provider"`
}

// ChatRequest addresses a conversation either to an explicit provider or to a
// model id from which the provider is inferred. Exactly one of Provider and
// ModelID is set.
type ChatRequest struct {
	Provider ProviderID `json:"provider,omitempty"`
	ModelID  string     `json:"modelId,omitempty"`
	Messages []Message  `json:"messages"`
}

// ChatResult is the single reply produced for a chat request.
type ChatResult struct {
	Message string `json:"message"`
}
