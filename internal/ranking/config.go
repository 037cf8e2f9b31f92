package ranking

import (
	"fmt"
	"math"
	"strings"

	"github.com/animus-labs/animus-scenarios/internal/platform/env"
)

const (
	DefaultMaxScenarios = 5
	MaxScenariosLimit   = 12
	DefaultTemperature  = 0.7
	MinTemperature      = 0.1
	MaxTemperature      = 2.0
)

type Config struct {
	MaxScenarios int
	Temperature  float64
	PolicyFile   string
}

func ConfigFromEnv() (Config, error) {
	maxScenarios, err := env.Int("MAX_SCENARIOS", DefaultMaxScenarios)
	if err != nil {
		return Config{}, err
	}
	temperature, err := env.Float("RANKING_TEMPERATURE", DefaultTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		MaxScenarios: maxScenarios,
		Temperature:  temperature,
		PolicyFile:   strings.TrimSpace(env.String("RANKING_POLICY_FILE", "")),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MaxScenarios < 1 || c.MaxScenarios > MaxScenariosLimit {
		return fmt.Errorf("MAX_SCENARIOS must be between 1 and %d", MaxScenariosLimit)
	}
	if math.IsNaN(c.Temperature) || c.Temperature <= 0 {
		return fmt.Errorf("RANKING_TEMPERATURE must be positive")
	}
	return nil
}
