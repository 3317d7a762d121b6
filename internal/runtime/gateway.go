// Package runtime assembles the gateway: configuration, provider registry,
// model catalog, dispatcher, retry controller and HTTP server.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/hjkwon-github/docmost-codex/internal/catalog"
	"github.com/hjkwon-github/docmost-codex/internal/config"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/frontdoor"
	"github.com/hjkwon-github/docmost-codex/internal/provider"
	"github.com/hjkwon-github/docmost-codex/internal/retry"
	"github.com/hjkwon-github/docmost-codex/internal/router"
	"github.com/hjkwon-github/docmost-codex/internal/server"
)

// snapshot pairs a configuration with the adapters built from it so both
// always change together.
type snapshot struct {
	cfg      *config.Config
	adapters provider.Adapters
}

// Gateway is the main entry point for running the AI gateway. It can be
// embedded in a larger application or run standalone.
type Gateway struct {
	// Options
	initial     *config.Config
	configPath  string
	httpClient  *http.Client
	retryPolicy retry.Policy
	logger      *slog.Logger

	current atomic.Pointer[snapshot]

	registry   *provider.Registry
	catalog    *catalog.Catalog
	dispatcher *router.Dispatcher
	retry      *retry.Controller
	server     *server.Server

	// Lifecycle management
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new Gateway with the given options. A configuration is
// required (WithConfigFile or WithConfig).
func New(opts ...Option) (*Gateway, error) {
	gw := &Gateway{
		logger:      slog.Default(),
		retryPolicy: retry.DefaultPolicy,
	}

	for _, opt := range opts {
		if err := opt(gw); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if gw.initial == nil {
		return nil, fmt.Errorf("configuration required (use WithConfigFile or WithConfig)")
	}

	gw.Reload(gw.initial)

	gw.registry = provider.NewRegistry(func() config.ProvidersConfig {
		return gw.current.Load().cfg.Providers
	})
	gw.catalog = catalog.New(gw, gw.logger)
	gw.dispatcher = router.NewDispatcher(router.New(gw.catalog, gw.logger), gw, gw.logger)
	gw.retry = retry.NewController(gw.retryPolicy, gw.logger)

	gw.server = server.New(gw.initial.Server, gw.logger)
	frontdoor.NewHandler(gw).Register(gw.server.Router)

	return gw, nil
}

// Reload swaps in a new configuration. In-flight requests finish with the
// adapters they started with. Server settings only apply at start.
func (g *Gateway) Reload(cfg *config.Config) {
	g.current.Store(&snapshot{
		cfg:      cfg,
		adapters: buildAdapters(cfg.Providers, g.httpClient),
	})
	g.logger.Info("provider configuration applied",
		slog.Any("usable_providers", provider.Usable(cfg.Providers)))
}

// Config returns the configuration in effect.
func (g *Gateway) Config() *config.Config {
	return g.current.Load().cfg
}

// Snapshot implements provider.SnapshotSource: the provider configuration
// and adapters in effect, loaded together.
func (g *Gateway) Snapshot() provider.Snapshot {
	s := g.current.Load()
	return provider.Snapshot{Config: s.cfg.Providers, Adapters: s.adapters}
}

// ListProviders returns the usable providers in stable order.
func (g *Gateway) ListProviders() []domain.ProviderID {
	return g.registry.ListUsable()
}

// ListModels returns the models of every usable provider.
func (g *Gateway) ListModels(ctx context.Context) ([]domain.ModelDescriptor, error) {
	return g.catalog.ListModels(ctx)
}

// Send performs one chat call without retries.
func (g *Gateway) Send(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error) {
	return g.dispatcher.Send(ctx, req)
}

// Chat performs a chat call with bounded retries. A non-empty turnKey lets a
// newer call for the same conversation supersede this one.
func (g *Gateway) Chat(ctx context.Context, turnKey string, req domain.ChatRequest) (*domain.ChatResult, error) {
	var result *domain.ChatResult
	err := g.retry.Do(ctx, turnKey, func(ctx context.Context) error {
		res, err := g.dispatcher.Send(ctx, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelChat aborts the in-flight chat for turnKey.
func (g *Gateway) CancelChat(turnKey string) bool {
	return g.retry.Cancel(turnKey)
}

// Handler returns the HTTP handler serving the gateway API.
func (g *Gateway) Handler() http.Handler {
	return g.server.Router
}

// Start begins serving on the configured port and, with a config file,
// watching it for changes. It returns once the listener is bound.
func (g *Gateway) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", g.initial.Server.Port))
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	return g.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done != nil {
		return fmt.Errorf("gateway already started")
	}

	ctx, g.cancel = context.WithCancel(ctx)
	g.done = make(chan struct{})

	if g.configPath != "" {
		if err := config.Watch(ctx, g.configPath, g.logger, g.Reload); err != nil {
			g.logger.Warn("config hot reload disabled", slog.String("error", err.Error()))
		}
	}

	go func() {
		defer close(g.done)
		if err := g.server.Serve(ln); err != nil {
			g.logger.Error("server stopped", slog.String("error", err.Error()))
		}
	}()

	g.logger.Info("gateway started",
		slog.String("addr", ln.Addr().String()),
		slog.Any("usable_providers", g.ListProviders()))
	return nil
}

// Shutdown gracefully stops the gateway.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}
	if g.done == nil {
		return nil
	}

	if err := g.server.Shutdown(ctx); err != nil {
		g.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
		return err
	}

	select {
	case <-g.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.logger.Info("gateway shutdown complete")
	return nil
}
