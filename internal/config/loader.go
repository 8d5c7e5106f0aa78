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
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if TIKBATTLE_CONFIG is set
//  3. env (prefix TIKBATTLE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TIKBATTLE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TIKBATTLE_ADDR, TIKBATTLE_QUEUE_SIZE, ...
	// Map env keys like TIKBATTLE_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("TIKBATTLE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "tikbattle_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural invariants that would otherwise surface as
// confusing runtime behavior.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Teams))
	for _, t := range c.Teams {
		if t.ID == "" {
			return fmt.Errorf("%w: team with empty id", ErrInvalidConfig)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate team id %q", ErrInvalidConfig, t.ID)
		}
		seen[t.ID] = true
	}

	for _, g := range c.TapGoals {
		if g.Threshold < 0 {
			return fmt.Errorf("%w: negative tap goal threshold", ErrInvalidConfig)
		}
	}
	for _, g := range c.PointGoals {
		if g.Threshold < 0 {
			return fmt.Errorf("%w: negative point goal threshold", ErrInvalidConfig)
		}
	}
	return nil
}
