// Package openai implements the hosted-commercial adapter on top of the
// OpenAI Chat Completions API.
package openai

import (
	"context"
	"errors"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/hjkwon-github/docmost-codex/internal/config"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/provider"
)

const (
	// DefaultModel is used when the request names no model.
	DefaultModel = goopenai.GPT3Dot5Turbo

	maxTokens   = 2000
	temperature = 0.7
)

// Models is the static catalog advertised for this provider.
var Models = []domain.ModelDescriptor{
	{ID: goopenai.GPT3Dot5Turbo, Name: "GPT-3.5 Turbo", Provider: domain.ProviderHostedCommercial},
	{ID: goopenai.GPT4, Name: "GPT-4", Provider: domain.ProviderHostedCommercial},
	{ID: goopenai.GPT4Turbo, Name: "GPT-4 Turbo", Provider: domain.ProviderHostedCommercial},
}

// IsModel reports whether id is one of the static catalog ids.
func IsModel(id string) bool {
	for _, m := range Models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// Provider implements domain.Adapter for hosted-commercial.
type Provider struct {
	client     *goopenai.Client
	httpClient *http.Client
}

// New creates the adapter from the hosted-commercial configuration.
func New(cfg config.HostedConfig, opts ...ProviderOption) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if p.httpClient != nil {
		clientCfg.HTTPClient = p.httpClient
	}

	p.client = goopenai.NewClientWithConfig(clientCfg)
	return p
}

func (p *Provider) ID() domain.ProviderID {
	return domain.ProviderHostedCommercial
}

// Call sends one chat completion and returns the first choice's content.
func (p *Provider) Call(ctx context.Context, messages []domain.Message, modelID string) (string, error) {
	if modelID == "" {
		modelID = DefaultModel
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       modelID,
		Messages:    toAPIMessages(messages),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", toProviderError(err)
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

func toAPIMessages(messages []domain.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = goopenai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}
	return out
}

// toProviderError turns go-openai's status errors into *provider.StatusError.
// Transport errors pass through untouched.
func toProviderError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return provider.NewStatusError(apiErr.HTTPStatusCode, apiErr.Message, nil).
			WithProvider(domain.ProviderHostedCommercial)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return provider.NewStatusError(reqErr.HTTPStatusCode, msg, nil).
			WithProvider(domain.ProviderHostedCommercial)
	}

	return err
}
