package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ACERANK_CONFIG is set
//  3. env (prefix ACERANK_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ACERANK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ACERANK_ADDR, ACERANK_QUEUE_SIZE, ...
	// Map env keys like ACERANK_QUEUE_SIZE -> queue_size (flat keys).
	// Double underscores become dots for nested keys: ACERANK_WEIGHTS__OFFENSE.
	envProvider := env.Provider("ACERANK_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "ACERANK_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SnapshotQueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.LogisticAlpha <= 0:
		return fmt.Errorf("%w: logistic_alpha must be positive", ErrInvalidConfig)
	case c.DecayBase <= 0 || c.DecayBase > 1:
		return fmt.Errorf("%w: decay_base must be in (0, 1]", ErrInvalidConfig)
	case c.DefaultAvailability < 0.70 || c.DefaultAvailability > 1.05:
		return fmt.Errorf("%w: default_availability must be in [0.70, 1.05]", ErrInvalidConfig)
	}
	return nil
}
