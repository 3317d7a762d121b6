package router

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hjkwon-github/docmost-codex/internal/domain"
)

type stubIndex map[string]domain.ProviderID

func (s stubIndex) Lookup(id string) (domain.ProviderID, bool) {
	p, ok := s[id]
	return p, ok
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRouterResolve(t *testing.T) {
	rt := New(stubIndex{
		"llama-3": domain.ProviderSelfHosted,
		"gpt-4":   domain.ProviderSelfHosted,
		"mixtral": domain.ProviderHostedOpen,
	}, discardLogger())

	tests := []struct {
		name         string
		model        string
		wantProvider domain.ProviderID
		wantReason   Reason
	}{
		{"commercial static id", "gpt-3.5-turbo", domain.ProviderHostedCommercial, ReasonStatic},
		{"static id beats catalog", "gpt-4", domain.ProviderHostedCommercial, ReasonStatic},
		{"hosted-open placeholder", "huggingface-default", domain.ProviderHostedOpen, ReasonPlaceholder},
		{"catalog attribution", "mixtral", domain.ProviderHostedOpen, ReasonCatalog},
		{"discovered self-hosted", "llama-3", domain.ProviderSelfHosted, ReasonCatalog},
		{"unrecognized falls back", "gpt4-typo", domain.ProviderSelfHosted, ReasonFallback},
		{"case sensitive", "GPT-4", domain.ProviderSelfHosted, ReasonFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := rt.Resolve(tt.model)
			if got != tt.wantProvider || reason != tt.wantReason {
				t.Errorf("Resolve(%q) = %s/%s, want %s/%s", tt.model, got, reason, tt.wantProvider, tt.wantReason)
			}
		})
	}
}

func TestRouterResolve_WarnsOnlyForUnrecognized(t *testing.T) {
	var buf bytes.Buffer
	rt := New(stubIndex{"llama-3": domain.ProviderSelfHosted}, slog.New(slog.NewTextHandler(&buf, nil)))

	if got, reason := rt.Resolve("llama-3"); got != domain.ProviderSelfHosted || reason != ReasonCatalog {
		t.Fatalf("Resolve(llama-3) = %s/%s", got, reason)
	}
	if buf.Len() != 0 {
		t.Errorf("discovered model should not warn, got %q", buf.String())
	}

	if got, reason := rt.Resolve("lama-3"); got != domain.ProviderSelfHosted || reason != ReasonFallback {
		t.Fatalf("Resolve(lama-3) = %s/%s", got, reason)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "model=lama-3") {
		t.Errorf("log = %q, want a WARN naming the model", out)
	}
}

func TestRouterResolve_NilIndex(t *testing.T) {
	rt := New(nil, discardLogger())
	if got, _ := rt.Resolve("llama-3"); got != domain.ProviderSelfHosted {
		t.Errorf("Resolve() = %s", got)
	}
}

func TestRouterDecide(t *testing.T) {
	rt := New(nil, discardLogger())

	d, err := rt.Decide(domain.ChatRequest{Provider: domain.ProviderHostedOpen})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Provider != domain.ProviderHostedOpen || d.Model != "" || d.Reason != ReasonExplicit {
		t.Errorf("Decide() = %+v", d)
	}

	d, err = rt.Decide(domain.ChatRequest{ModelID: "gpt-4"})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Provider != domain.ProviderHostedCommercial || d.Model != "gpt-4" {
		t.Errorf("Decide() = %+v", d)
	}

	if _, err := rt.Decide(domain.ChatRequest{Provider: "openai"}); err == nil {
		t.Error("expected error for unknown provider id")
	}
}
