// Package openai provides wire types and an HTTP client for OpenAI-compatible
// inference servers (llama.cpp, vLLM, Ollama, LM Studio and similar).
package openai

import (
	"encoding/json"
)

// ChatCompletionRequest represents a chat completion request.
// Stream is always serialized so servers that default to streaming get an
// explicit false.
type ChatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []ChatCompletionMessage `json:"messages"`
	MaxTokens   int                     `json:"max_tokens,omitempty"`
	Temperature float32                 `json:"temperature"`
	Stream      bool                    `json:"stream"`
}

// ChatCompletionMessage represents a message in the chat completion request/response.
type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse represents a chat completion response.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice represents a completion choice.
type Choice struct {
	Index        int                   `json:"index"`
	Message      ChatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Model represents a model entry reported by the server.
// Some servers only fill Name.
type Model struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Object  string `json:"object,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ModelList represents a list of models. Data is nil when the field was
// absent or null.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// ErrorResponse represents an error body. Servers disagree on the shape of
// the error field: OpenAI sends an object, several local servers a string.
type ErrorResponse struct {
	Error json.RawMessage `json:"error"`
}

// APIError contains error details.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

// ParseErrorMessage extracts the provider's error message from a response
// body. It returns "" when the body carries none.
func ParseErrorMessage(data []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil || len(errResp.Error) == 0 {
		return ""
	}

	var apiErr APIError
	if err := json.Unmarshal(errResp.Error, &apiErr); err == nil {
		return apiErr.Message
	}

	var msg string
	if err := json.Unmarshal(errResp.Error, &msg); err == nil {
		return msg
	}
	return ""
}
