package runner

import (
	"errors"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/platform/env"
)

type Config struct {
	Workers          int
	ExecutionTimeout time.Duration
	PersistTimeout   time.Duration
}

func ConfigFromEnv() (Config, error) {
	var err error
	cfg := Config{}
	if cfg.Workers, err = env.Int("RUNNER_WORKERS", 8); err != nil {
		return Config{}, err
	}
	if cfg.ExecutionTimeout, err = env.Duration("MODEL_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PersistTimeout, err = env.Duration("RUNNER_PERSIST_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Workers <= 0 {
		return errors.New("RUNNER_WORKERS must be positive")
	}
	if c.ExecutionTimeout <= 0 {
		return errors.New("MODEL_TIMEOUT must be positive")
	}
	if c.PersistTimeout <= 0 {
		return errors.New("RUNNER_PERSIST_TIMEOUT must be positive")
	}
	return nil
}
