package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/hjkwon-github/docmost-codex/internal/codec"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/provider"
	"github.com/hjkwon-github/docmost-codex/internal/provider/openai"
	"github.com/hjkwon-github/docmost-codex/internal/tokens"
)

// Dispatcher sends a chat request to the one provider that serves it.
type Dispatcher struct {
	router    *Router
	snapshots provider.SnapshotSource
	counter   *tokens.Registry
	logger    *slog.Logger
}

// NewDispatcher wires a dispatcher.
func NewDispatcher(r *Router, snapshots provider.SnapshotSource, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		router:    r,
		snapshots: snapshots,
		counter:   tokens.NewRegistry(),
		logger:    logger,
	}
}

// Send validates req, routes it and performs exactly one adapter call.
// Errors are always *domain.Error.
func (d *Dispatcher) Send(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	decision, err := d.router.Decide(req)
	if err != nil {
		return nil, err
	}

	snap := d.snapshots.Snapshot()
	adapter, err := snap.Require(decision.Provider)
	if err != nil {
		return nil, err
	}

	if timeout := snap.Config.ChatTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	count := d.counter.Count(tokenModel(decision), req.Messages)
	start := time.Now()

	reply, err := adapter.Call(ctx, req.Messages, decision.Model)

	attrs := []any{
		slog.String("provider", string(decision.Provider)),
		slog.String("model", decision.Model),
		slog.String("route", string(decision.Reason)),
		slog.Int("prompt_tokens", count.Tokens),
		slog.Bool("prompt_tokens_estimated", count.Estimated),
		slog.Duration("duration", time.Since(start)),
	}

	if err != nil {
		norm := codec.Normalize(err).WithProvider(decision.Provider)
		attrs = append(attrs,
			slog.String("kind", string(norm.Kind)),
			slog.String("error", err.Error()),
		)
		if norm.Kind == domain.ErrorKindUnknown {
			d.logger.Error("chat failed", attrs...)
		} else {
			d.logger.Warn("chat failed", attrs...)
		}
		return nil, norm
	}

	d.logger.Info("chat completed", attrs...)
	return &domain.ChatResult{Message: reply}, nil
}

// tokenModel is the model the prompt is counted against. An explicit
// hosted-commercial request runs on the adapter's default model.
func tokenModel(decision *Decision) string {
	if decision.Model == "" && decision.Provider == domain.ProviderHostedCommercial {
		return openai.DefaultModel
	}
	return decision.Model
}

// Validate checks a request before any network call.
func Validate(req domain.ChatRequest) error {
	switch {
	case req.Provider != "" && req.ModelID != "":
		return domain.ErrInvalidRequest("specify either provider or modelId, not both")
	case req.Provider == "" && req.ModelID == "":
		return domain.ErrInvalidRequest("provider or modelId is required")
	case len(req.Messages) == 0:
		return domain.ErrInvalidRequest("messages must not be empty")
	}

	for i, m := range req.Messages {
		if !m.Role.Valid() {
			return domain.ErrInvalidRequest("messages[%d]: role must be one of system, user, assistant", i)
		}
		if m.Content == "" {
			return domain.ErrInvalidRequest("messages[%d]: content must not be empty", i)
		}
	}
	return nil
}
