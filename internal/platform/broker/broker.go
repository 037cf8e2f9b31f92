package broker

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/platform/env"
	"github.com/nats-io/nats.go"
)

// Config describes the external event mirror. An empty URL disables it.
type Config struct {
	URL            string
	Subject        string
	ConnectTimeout time.Duration
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

func ConfigFromEnv() (Config, error) {
	timeout, err := env.Duration("NATS_CONNECT_TIMEOUT", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		URL:            strings.TrimSpace(env.String("NATS_URL", "")),
		Subject:        env.String("ORCHESTRATION_EVENTS_SUBJECT", "orchestration.runs"),
		ConnectTimeout: timeout,
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
	subject := strings.TrimSpace(c.Subject)
	if subject == "" {
		return errors.New("ORCHESTRATION_EVENTS_SUBJECT is required")
	}
	if strings.ContainsAny(subject, " \t*>") {
		return fmt.Errorf("ORCHESTRATION_EVENTS_SUBJECT must be a literal subject: %q", subject)
	}
	if c.ConnectTimeout <= 0 {
		return errors.New("NATS_CONNECT_TIMEOUT must be positive")
	}
	return nil
}

// Connect dials NATS with reconnects enabled. An unreachable server is not an
// error: the connection keeps retrying in the background and publishes buffer
// until it is established.
func Connect(cfg Config, logger *slog.Logger) (*nats.Conn, error) {
	if !cfg.Enabled() {
		return nil, errors.New("nats url is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(
		cfg.URL,
		nats.Name("orchestration"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return conn, nil
}
