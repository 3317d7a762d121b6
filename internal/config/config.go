// Package config loads gateway configuration from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for structured environment overrides.
// Nested keys are separated by a double underscore, e.g.
// GATEWAY_PROVIDERS__OPENAI__API_KEY.
const EnvPrefix = "GATEWAY_"

// DefaultOpenAIBaseURL is used when no base URL override is configured.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Providers ProvidersConfig `koanf:"providers"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Port           int             `koanf:"port"`
	RequestTimeout time.Duration   `koanf:"request_timeout"`
	RateLimit      RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig throttles inbound requests. A zero rate disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// ProvidersConfig is the credential and endpoint snapshot that decides which
// providers are usable.
type ProvidersConfig struct {
	OpenAI      HostedConfig `koanf:"openai"`
	HuggingFace HostedConfig `koanf:"huggingface"`
	Local       LocalConfig  `koanf:"local"`

	DiscoveryTimeout     time.Duration `koanf:"discovery_timeout"`
	ChatTimeout          time.Duration `koanf:"chat_timeout"`
	BlockPrivateNetworks bool          `koanf:"block_private_networks"` // hosted providers only
}

type HostedConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type LocalConfig struct {
	BaseURL      string `koanf:"base_url"`
	DefaultModel string `koanf:"default_model"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

// legacyEnv maps the environment names used by existing deployments.
var legacyEnv = map[string]string{
	"OPENAI_API_KEY":       "providers.openai.api_key",
	"OPENAI_API_BASE":      "providers.openai.base_url",
	"HUGGINGFACE_API_KEY":  "providers.huggingface.api_key",
	"HUGGINGFACE_API_BASE": "providers.huggingface.base_url",
	"LOCAL_LLM_API_BASE":   "providers.local.base_url",
	"LOCAL_LLM_MODEL":      "providers.local.default_model",
}

var defaults = map[string]any{
	"server.port":                 8080,
	"server.request_timeout":      "150s",
	"providers.openai.base_url":   DefaultOpenAIBaseURL,
	"providers.discovery_timeout": "5s",
	"providers.chat_timeout":      "120s",
	"telemetry.service_name":      "docmost-ai-gateway",
	"server.rate_limit.burst":     10,
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads path (if non-empty and present), then legacy environment names,
// then GATEWAY_ prefixed overrides. Later sources win.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// File not found is OK, we'll use env vars
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) || k.String(key) == "" {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Providers.expand()
	return &cfg, nil
}

// expand substitutes ${VAR} references in credentials and endpoints.
func (p *ProvidersConfig) expand() {
	for _, s := range []*string{
		&p.OpenAI.APIKey, &p.OpenAI.BaseURL,
		&p.HuggingFace.APIKey, &p.HuggingFace.BaseURL,
		&p.Local.BaseURL, &p.Local.DefaultModel,
	} {
		*s = strings.TrimSpace(substituteEnvVars(*s))
	}
	if p.OpenAI.BaseURL == "" {
		p.OpenAI.BaseURL = DefaultOpenAIBaseURL
	}
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
