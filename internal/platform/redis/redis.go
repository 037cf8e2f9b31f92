package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/platform/env"
	goredis "github.com/redis/go-redis/v9"
)

// Config describes the cache tier. An empty URL disables the tier.
type Config struct {
	URL         string
	Namespace   string
	PingTimeout time.Duration
	TTL         time.Duration
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

func ConfigFromEnv() (Config, error) {
	pingTimeout, err := env.Duration("REDIS_PING_TIMEOUT", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	ttl, err := env.Duration("REDIS_RUN_TTL", 0)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		URL:         strings.TrimSpace(env.String("REDIS_URL", "")),
		Namespace:   env.String("REDIS_NAMESPACE", "orchestration:run"),
		PingTimeout: pingTimeout,
		TTL:         ttl,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if strings.TrimSpace(c.Namespace) == "" {
		return errors.New("REDIS_NAMESPACE is required")
	}
	if c.PingTimeout <= 0 {
		return errors.New("REDIS_PING_TIMEOUT must be positive")
	}
	if c.TTL < 0 {
		return errors.New("REDIS_RUN_TTL must be >= 0")
	}
	return nil
}

// NewClient parses the URL and builds a client. go-redis dials on first use,
// so an unreachable server is not an error here.
func NewClient(cfg Config) (*goredis.Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("redis url is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	return goredis.NewClient(opts), nil
}

func Ping(ctx context.Context, client *goredis.Client, cfg Config) error {
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Open connects and pings once.
func Open(ctx context.Context, cfg Config) (*goredis.Client, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := Ping(ctx, client, cfg); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
