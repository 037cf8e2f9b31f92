// Package httpserver runs the orchestration HTTP listener and carries the
// shared handlers and middleware around it.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/platform/env"
)

type Config struct {
	Service         string
	Addr            string
	ShutdownTimeout time.Duration
}

// ConfigFromEnv reads <PREFIX>_HTTP_ADDR and <PREFIX>_SHUTDOWN_TIMEOUT.
func ConfigFromEnv(service, prefix, defaultAddr string) (Config, error) {
	timeout, err := env.Duration(prefix+"_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Service:         service,
		Addr:            strings.TrimSpace(env.String(prefix+"_HTTP_ADDR", defaultAddr)),
		ShutdownTimeout: timeout,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Service == "" {
		return errors.New("service is required")
	}
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}

// Run serves until ctx is cancelled, then drains within the shutdown timeout.
// There is no write timeout: run streams stay open until their run ends.
func Run(ctx context.Context, logger *slog.Logger, cfg Config, handler http.Handler) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "service", cfg.Service, "addr", cfg.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
