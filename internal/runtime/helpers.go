package runtime

import (
	"net/http"

	"github.com/hjkwon-github/docmost-codex/internal/config"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/pkg/safehttp"
	"github.com/hjkwon-github/docmost-codex/internal/provider"
	"github.com/hjkwon-github/docmost-codex/internal/provider/huggingface"
	"github.com/hjkwon-github/docmost-codex/internal/provider/local"
	"github.com/hjkwon-github/docmost-codex/internal/provider/openai"
)

// buildAdapters creates one adapter per provider for a configuration
// snapshot. Hosted providers may be barred from private addresses; the
// self-hosted backend is private by nature and never is.
func buildAdapters(cfg config.ProvidersConfig, override *http.Client) provider.Adapters {
	hostedClient, localClient := override, override
	if override == nil {
		hostedClient = safehttp.NewClient(cfg.BlockPrivateNetworks)
		localClient = safehttp.NewClient(false)
	}

	return provider.Adapters{
		domain.ProviderHostedCommercial: openai.New(cfg.OpenAI, openai.WithHTTPClient(hostedClient)),
		domain.ProviderHostedOpen:       huggingface.New(cfg.HuggingFace, huggingface.WithHTTPClient(hostedClient)),
		domain.ProviderSelfHosted:       local.New(cfg.Local, local.WithHTTPClient(localClient)),
	}
}
