// Package gateway provides the public API for embedding the AI gateway.
// This is the stable API for external consumers.
package gateway

import (
	"github.com/hjkwon-github/docmost-codex/internal/config"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/retry"
	"github.com/hjkwon-github/docmost-codex/internal/runtime"
)

// Gateway is the main entry point for running the AI gateway.
// See internal/runtime.Gateway for full documentation.
type Gateway = runtime.Gateway

// Option is a functional option for configuring a Gateway.
type Option = runtime.Option

// Re-exported types used by the Gateway methods.
type (
	Config          = config.Config
	ChatRequest     = domain.ChatRequest
	ChatResult      = domain.ChatResult
	Message         = domain.Message
	ModelDescriptor = domain.ModelDescriptor
	ProviderID      = domain.ProviderID
	Error           = domain.Error
	RetryPolicy     = retry.Policy
)

// New creates a new Gateway with the given options.
// Example:
//
//	gw, err := gateway.New(
//	    gateway.WithConfigFile("config.yaml"),
//	    gateway.WithLogger(logger),
//	)
var New = runtime.New

// LoadConfig reads a configuration file plus environment overrides.
var LoadConfig = config.Load

// Configuration options
var (
	WithConfigFile  = runtime.WithConfigFile
	WithConfig      = runtime.WithConfig
	WithLogger      = runtime.WithLogger
	WithHTTPClient  = runtime.WithHTTPClient
	WithRetryPolicy = runtime.WithRetryPolicy
)
