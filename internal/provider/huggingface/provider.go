// Package huggingface implements the hosted-open adapter for Hugging Face
// text-generation inference endpoints.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hjkwon-github/docmost-codex/internal/config"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/provider"
)

// PlaceholderModel is the single catalog entry for this provider. The endpoint
// URL decides the model, so the id is never sent upstream.
var PlaceholderModel = domain.ModelDescriptor{
	ID:       "huggingface-default",
	Name:     "Hugging Face Model",
	Provider: domain.ProviderHostedOpen,
}

type generateRequest struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
}

type parameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	DoSample     bool    `json:"do_sample"`
	TopP         float64 `json:"top_p"`
}

var defaultParameters = parameters{
	MaxNewTokens: 2000,
	Temperature:  0.7,
	DoSample:     true,
	TopP:         0.9,
}

type generation struct {
	GeneratedText string `json:"generated_text"`
}

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// Provider implements domain.Adapter for hosted-open.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates the adapter from the hosted-open configuration.
func New(cfg config.HostedConfig, opts ...ProviderOption) *Provider {
	p := &Provider{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) ID() domain.ProviderID {
	return domain.ProviderHostedOpen
}

// Call flattens the conversation into a prompt and posts it to the endpoint.
// modelID is ignored.
func (p *Provider) Call(ctx context.Context, messages []domain.Message, _ string) (string, error) {
	if p.baseURL == "" {
		return "", domain.ErrInvalidRequest("hosted-open endpoint URL is not configured").
			WithProvider(domain.ProviderHostedOpen)
	}

	body, err := json.Marshal(generateRequest{
		Inputs:     Prompt(messages),
		Parameters: defaultParameters,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", provider.NewStatusError(resp.StatusCode, errorMessage(respBody), respBody).
			WithProvider(domain.ProviderHostedOpen)
	}

	return GeneratedText(respBody)
}

// Prompt renders messages as "role: content" lines.
func Prompt(messages []domain.Message) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = string(m.Role) + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

// GeneratedText extracts the reply from the shapes the inference API uses:
// a bare JSON string, a list of generations, or a single generation.
func GeneratedText(body []byte) (string, error) {
	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		return text, nil
	}

	var list []generation
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) > 0 && list[0].GeneratedText != "" {
			return list[0].GeneratedText, nil
		}
		return "", provider.InvalidResponse("generation list has no generated_text")
	}

	var single generation
	if err := json.Unmarshal(body, &single); err == nil && single.GeneratedText != "" {
		return single.GeneratedText, nil
	}

	return "", provider.InvalidResponse("unrecognized generation response: %s", provider.Snippet(body))
}

// errorMessage reads {"error": "..."} bodies; anything else yields "".
func errorMessage(body []byte) string {
	var e struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	switch v := e.Error.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
