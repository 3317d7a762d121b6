package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hjkwon-github/docmost-codex/internal/config"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/provider"
	"github.com/hjkwon-github/docmost-codex/internal/testutil"
)

func TestProvider_Call(t *testing.T) {
	if testutil.EnvOr("OPENAI_API_KEY", "") == "" && testutil.EnvOr("VCR_MODE", "") == "record" {
		t.Skip("Skipping test: OPENAI_API_KEY not set")
	}

	client := testutil.VCRHTTPClient(t, "openai_chat")

	p := New(config.HostedConfig{
		APIKey:  testutil.EnvOr("OPENAI_API_KEY", "test-key"),
		BaseURL: config.DefaultOpenAIBaseURL,
	}, WithHTTPClient(client))

	got, err := p.Call(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "Summarize: the meeting moved to Thursday."},
	}, "gpt-4")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != "The meeting is now on Thursday." {
		t.Errorf("Call() = %q", got)
	}
}

func TestProvider_CallRequestShape(t *testing.T) {
	var captured map[string]any
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"hi"}}]}`))
	}))
	defer srv.Close()

	p := New(config.HostedConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})

	got, err := p.Call(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "hello"},
	}, "")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != "hi" {
		t.Errorf("Call() = %q, want hi", got)
	}

	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if captured["model"] != DefaultModel {
		t.Errorf("model = %v, want %s", captured["model"], DefaultModel)
	}
	if captured["max_tokens"] != float64(2000) {
		t.Errorf("max_tokens = %v", captured["max_tokens"])
	}
	if temp, _ := captured["temperature"].(float64); temp < 0.69 || temp > 0.71 {
		t.Errorf("temperature = %v", captured["temperature"])
	}
	if msgs, _ := captured["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v", captured["messages"])
	}
}

func TestProvider_CallErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantInvalid bool
	}{
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			body:       `{"error":{"message":"Rate limit reached","type":"requests"}}`,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "upstream html error",
			status:     http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:        "no choices",
			status:      http.StatusOK,
			body:        `{"choices":[]}`,
			wantInvalid: true,
		},
		{
			name:        "empty content",
			status:      http.StatusOK,
			body:        `{"choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`,
			wantInvalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := New(config.HostedConfig{APIKey: "sk-test", BaseURL: srv.URL})
			_, err := p.Call(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "x"}}, "gpt-4")
			if err == nil {
				t.Fatal("expected error")
			}

			if tt.wantInvalid {
				if !errors.Is(err, provider.ErrInvalidResponse) {
					t.Errorf("error = %v, want ErrInvalidResponse", err)
				}
				return
			}

			var statusErr *provider.StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("error = %T %v, want *provider.StatusError", err, err)
			}
			if statusErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, tt.wantStatus)
			}
			if statusErr.Provider != domain.ProviderHostedCommercial {
				t.Errorf("Provider = %q", statusErr.Provider)
			}
		})
	}
}

func TestIsModel(t *testing.T) {
	for _, id := range []string{"gpt-3.5-turbo", "gpt-4", "gpt-4-turbo"} {
		if !IsModel(id) {
			t.Errorf("IsModel(%q) = false", id)
		}
	}
	if IsModel("llama-3") {
		t.Error("IsModel(llama-3) = true")
	}
}
