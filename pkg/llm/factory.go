package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider  string // "openai" (any OpenAI-compatible endpoint) or "anthropic"
	Endpoint  string // Base URL, e.g., "https://api.openai.com/v1"
	Model     string // Model name, e.g., "gpt-4o"
	APIKey    string // Optional for local OpenAI-compatible endpoints
	MaxTokens int
}

// NewClientFromConfig builds the provider client named in cfg and wraps it
// with a circuit breaker.
func NewClientFromConfig(cfg *Config, breaker BreakerConfig, logger *zap.Logger) (LLMClient, error) {
	var (
		client LLMClient
		err    error
	)

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		client, err = NewClient(cfg, logger)
	case ProviderAnthropic:
		client, err = NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}

	return NewBreakerClient(client, breaker, logger), nil
}
