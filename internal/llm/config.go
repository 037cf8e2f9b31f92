package llm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/platform/env"
)

const (
	ProviderStub      = "stub"
	ProviderAnthropic = "anthropic"

	DefaultTokenBudget    = 4096
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 4 * time.Second
	DefaultAnthropicModel = "claude-sonnet-4-5"
)

type Config struct {
	Provider       string
	TokenBudget    int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicBaseURL   string
	AnthropicMaxTokens int
}

func ConfigFromEnv() (Config, error) {
	var err error
	cfg := Config{
		Provider:         strings.ToLower(strings.TrimSpace(env.String("LLM_PROVIDER", ProviderStub))),
		AnthropicAPIKey:  strings.TrimSpace(env.String("ANTHROPIC_API_KEY", "")),
		AnthropicModel:   env.String("ANTHROPIC_MODEL", DefaultAnthropicModel),
		AnthropicBaseURL: strings.TrimSpace(env.String("ANTHROPIC_BASE_URL", "")),
	}
	if cfg.TokenBudget, err = env.Int("LLM_TOKEN_BUDGET", DefaultTokenBudget); err != nil {
		return Config{}, err
	}
	if cfg.MaxAttempts, err = env.Int("LLM_MAX_ATTEMPTS", DefaultMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.InitialBackoff, err = env.Duration("LLM_BACKOFF_INITIAL", DefaultInitialBackoff); err != nil {
		return Config{}, err
	}
	if cfg.MaxBackoff, err = env.Duration("LLM_BACKOFF_MAX", DefaultMaxBackoff); err != nil {
		return Config{}, err
	}
	if cfg.AnthropicMaxTokens, err = env.Int("ANTHROPIC_MAX_TOKENS", 512); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Provider {
	case ProviderStub:
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return errors.New("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
		if strings.TrimSpace(c.AnthropicModel) == "" {
			return errors.New("ANTHROPIC_MODEL is required")
		}
		if c.AnthropicMaxTokens <= 0 {
			return errors.New("ANTHROPIC_MAX_TOKENS must be positive")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER unsupported: %q", c.Provider)
	}
	if c.TokenBudget <= 0 {
		return errors.New("LLM_TOKEN_BUDGET must be positive")
	}
	if c.MaxAttempts <= 0 {
		return errors.New("LLM_MAX_ATTEMPTS must be positive")
	}
	if c.InitialBackoff <= 0 || c.MaxBackoff < c.InitialBackoff {
		return errors.New("LLM_BACKOFF_INITIAL must be positive and not exceed LLM_BACKOFF_MAX")
	}
	return nil
}

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg)
	case ProviderStub, "":
		return StubProvider{}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
