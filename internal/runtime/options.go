package runtime

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hjkwon-github/docmost-codex/internal/config"
	"github.com/hjkwon-github/docmost-codex/internal/retry"
)

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway) error

// WithConfigFile loads configuration from path (plus environment overrides)
// and reloads it when the file changes once the gateway is started.
func WithConfigFile(path string) Option {
	return func(g *Gateway) error {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		g.initial = cfg
		g.configPath = path
		return nil
	}
}

// WithConfig uses a fixed configuration snapshot. Reload replaces it.
func WithConfig(cfg *config.Config) Option {
	return func(g *Gateway) error {
		if cfg == nil {
			return fmt.Errorf("config must not be nil")
		}
		g.initial = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		g.logger = logger
		return nil
	}
}

// WithHTTPClient sets the client every adapter uses for outbound calls,
// bypassing the default traced transports.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) error {
		g.httpClient = client
		return nil
	}
}

// WithRetryPolicy overrides the retry bounds applied by Chat.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(g *Gateway) error {
		if policy.MaxAttempts < 1 {
			return fmt.Errorf("retry policy needs at least one attempt")
		}
		g.retryPolicy = policy
		return nil
	}
}
