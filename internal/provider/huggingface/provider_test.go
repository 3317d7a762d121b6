package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hjkwon-github/docmost-codex/internal/codec"
	"github.com/hjkwon-github/docmost-codex/internal/config"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/provider"
)

func TestPrompt(t *testing.T) {
	got := Prompt([]domain.Message{
		{Role: domain.RoleSystem, Content: "You are terse."},
		{Role: domain.RoleUser, Content: "Hello"},
		{Role: domain.RoleAssistant, Content: "Hi."},
	})
	want := "system: You are terse.\nuser: Hello\nassistant: Hi."
	if got != want {
		t.Errorf("Prompt() = %q, want %q", got, want)
	}
}

func TestGeneratedText(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		want        string
		wantInvalid bool
	}{
		{"bare string", `"plain reply"`, "plain reply", false},
		{"generation list", `[{"generated_text":"from list"}]`, "from list", false},
		{"single generation", `{"generated_text":"from object"}`, "from object", false},
		{"empty list", `[]`, "", true},
		{"unrelated object", `{"answer":"nope"}`, "", true},
		{"not json", `<html>`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GeneratedText([]byte(tt.body))
			if tt.wantInvalid {
				if !errors.Is(err, provider.ErrInvalidResponse) {
					t.Errorf("error = %v, want ErrInvalidResponse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GeneratedText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GeneratedText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProvider_Call(t *testing.T) {
	var captured generateRequest
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`[{"generated_text":"Bonjour"}]`))
	}))
	defer srv.Close()

	p := New(config.HostedConfig{APIKey: "hf_test", BaseURL: srv.URL})
	got, err := p.Call(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "Translate: hello"},
	}, PlaceholderModel.ID)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != "Bonjour" {
		t.Errorf("Call() = %q", got)
	}

	if auth != "Bearer hf_test" {
		t.Errorf("Authorization = %q", auth)
	}
	if captured.Inputs != "user: Translate: hello" {
		t.Errorf("inputs = %q", captured.Inputs)
	}
	if captured.Parameters != defaultParameters {
		t.Errorf("parameters = %+v, want %+v", captured.Parameters, defaultParameters)
	}
}

func TestProvider_CallErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading","estimated_time":20}`))
	}))
	defer srv.Close()

	p := New(config.HostedConfig{APIKey: "hf_test", BaseURL: srv.URL})
	_, err := p.Call(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "x"}}, "")

	var statusErr *provider.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %T %v, want *provider.StatusError", err, err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable || statusErr.Message != "Model is currently loading" ||
		statusErr.Provider != domain.ProviderHostedOpen {
		t.Errorf("got %+v", statusErr)
	}
}

func TestProvider_CallUnusableBody(t *testing.T) {
	bodies := []string{
		`{"status":"connected","output":null}`,
		`{"note":"request timeout extended"}`,
		`{"hint":"pass your api key in the header"}`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			p := New(config.HostedConfig{APIKey: "hf_test", BaseURL: srv.URL})
			_, err := p.Call(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "x"}}, "")
			if !errors.Is(err, provider.ErrInvalidResponse) {
				t.Fatalf("error = %v, want ErrInvalidResponse", err)
			}

			got := codec.Normalize(err)
			if got.Kind != domain.ErrorKindInvalidResponse || got.Retryable {
				t.Errorf("normalized = %s retryable=%v, want invalid_response retryable=false", got.Kind, got.Retryable)
			}
		})
	}
}

func TestProvider_CallWithoutEndpoint(t *testing.T) {
	p := New(config.HostedConfig{APIKey: "hf_test"})
	_, err := p.Call(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "x"}}, "")

	var domErr *domain.Error
	if !errors.As(err, &domErr) || domErr.Kind != domain.ErrorKindInvalidRequest {
		t.Fatalf("error = %v, want invalid_request", err)
	}
}
