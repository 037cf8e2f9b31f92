package modeling

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/platform/env"
)

const (
	BackendHTTP     = "http"
	BackendDisabled = "disabled"
)

type Config struct {
	Backend         string
	Endpoint        string
	RequestTimeout  time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

func (c Config) Enabled() bool {
	return c.Backend == BackendHTTP
}

func ConfigFromEnv() (Config, error) {
	var err error
	cfg := Config{
		Backend:  strings.ToLower(strings.TrimSpace(env.String("MODELING_BACKEND", BackendHTTP))),
		Endpoint: strings.TrimRight(strings.TrimSpace(env.String("MODELING_ENDPOINT", "http://modeling:9000")), "/"),
	}
	if cfg.RequestTimeout, err = env.Duration("MODEL_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.BreakerFailures, err = env.Int("MODELING_BREAKER_FAILURES", 5); err != nil {
		return Config{}, err
	}
	if cfg.BreakerCooldown, err = env.Duration("MODELING_BREAKER_COOLDOWN", 30*time.Second); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendDisabled:
		return nil
	case BackendHTTP:
	default:
		return fmt.Errorf("MODELING_BACKEND unsupported: %q", c.Backend)
	}
	parsed, err := url.Parse(c.Endpoint)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("MODELING_ENDPOINT must be an http(s) url: %q", c.Endpoint)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("MODEL_TIMEOUT must be positive")
	}
	if c.BreakerFailures <= 0 {
		return errors.New("MODELING_BREAKER_FAILURES must be positive")
	}
	if c.BreakerCooldown <= 0 {
		return errors.New("MODELING_BREAKER_COOLDOWN must be positive")
	}
	return nil
}
