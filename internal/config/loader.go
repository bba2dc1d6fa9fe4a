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
//  1. defaults (New())
//  2. file (YAML) if SIFT_CONFIG is set
//  3. env (prefix SIFT_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("SIFT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SIFT_ADDR, SIFT_STORE_BACKEND, ...
	// Map env keys like SIFT_STORE_BACKEND -> store_backend (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SIFT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "sift_")
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

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch cfg.StoreBackend {
	case StoreMemory:
	case StoreSQLite:
		if cfg.DBPath == "" {
			return fmt.Errorf("%w: db_path must not be empty for the sqlite backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, cfg.StoreBackend)
	}
	if cfg.ExtractionLatencyMinMS < 0 || cfg.ExtractionLatencyMaxMS < cfg.ExtractionLatencyMinMS {
		return fmt.Errorf("%w: extraction latency bounds are inverted", ErrInvalidConfig)
	}
	if cfg.ClassificationThreshold < 0 || cfg.ClassificationThreshold >= 1 {
		if cfg.ClassificationThreshold != 0 {
			return fmt.Errorf("%w: classification_threshold must be in (0, 1)", ErrInvalidConfig)
		}
	}
	if len(cfg.ModalityWeights) > 0 {
		var sum float64
		for _, w := range cfg.ModalityWeights {
			sum += w
		}
		if sum < 0.999 || sum > 1.001 {
			return fmt.Errorf("%w: modality_weights must sum to 1.0, got %.3f", ErrInvalidConfig, sum)
		}
	}
	return nil
}
