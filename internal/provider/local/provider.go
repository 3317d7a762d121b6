// Package local implements the self-hosted adapter for OpenAI-compatible
// inference servers.
package local

import (
	"context"
	"net/http"

	openaiapi "github.com/hjkwon-github/docmost-codex/internal/api/openai"
	"github.com/hjkwon-github/docmost-codex/internal/config"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/provider"
)

const (
	// FallbackModel is sent when neither the request nor the configuration names a model.
	FallbackModel = "default"

	maxTokens   = 2000
	temperature = 0.7
)

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// Provider implements domain.Adapter and domain.ModelLister for self-hosted.
type Provider struct {
	client       *openaiapi.Client
	httpClient   *http.Client
	defaultModel string
}

// New creates the adapter from the self-hosted configuration.
func New(cfg config.LocalConfig, opts ...ProviderOption) *Provider {
	p := &Provider{defaultModel: cfg.DefaultModel}
	for _, opt := range opts {
		opt(p)
	}

	var clientOpts []openaiapi.ClientOption
	if p.httpClient != nil {
		clientOpts = append(clientOpts, openaiapi.WithHTTPClient(p.httpClient))
	}
	p.client = openaiapi.NewClient(cfg.BaseURL, clientOpts...)
	return p
}

func (p *Provider) ID() domain.ProviderID {
	return domain.ProviderSelfHosted
}

// DefaultModel returns the configured default model, possibly empty.
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// Call sends one non-streaming chat completion.
func (p *Provider) Call(ctx context.Context, messages []domain.Message, modelID string) (string, error) {
	req := &openaiapi.ChatCompletionRequest{
		Model:       p.resolveModel(modelID),
		Messages:    make([]openaiapi.ChatCompletionMessage, len(messages)),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      false,
	}
	for i, m := range messages {
		req.Messages[i] = openaiapi.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", provider.Attribute(err, domain.ProviderSelfHosted)
	}

	if len(resp.Choices) == 0 {
		return "", provider.InvalidResponse("no choices in completion")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", provider.InvalidResponse("first choice has no content")
	}
	return content, nil
}

// ListModels asks the server for its models. Errors are returned as is; the
// caller decides whether to fall back to the configured default.
func (p *Provider) ListModels(ctx context.Context) ([]domain.ModelDescriptor, error) {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, provider.Attribute(err, domain.ProviderSelfHosted)
	}

	models := make([]domain.ModelDescriptor, 0, len(list.Data))
	for _, m := range list.Data {
		// Some servers only report a name. Entries with neither cannot be addressed.
		id := m.ID
		if id == "" {
			id = m.Name
		}
		if id == "" {
			continue
		}
		models = append(models, domain.ModelDescriptor{
			ID:       id,
			Name:     id,
			Provider: domain.ProviderSelfHosted,
		})
	}
	return models, nil
}

// FallbackModels is the listing used when discovery fails.
func (p *Provider) FallbackModels() []domain.ModelDescriptor {
	if p.defaultModel == "" {
		return nil
	}
	return []domain.ModelDescriptor{{
		ID:       p.defaultModel,
		Name:     p.defaultModel,
		Provider: domain.ProviderSelfHosted,
	}}
}

func (p *Provider) resolveModel(modelID string) string {
	switch {
	case modelID != "":
		return modelID
	case p.defaultModel != "":
		return p.defaultModel
	default:
		return FallbackModel
	}
}
