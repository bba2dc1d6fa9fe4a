// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's error helpers.
package config

import "path/filepath"

// Store backend selectors.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the record store: memory or sqlite.
	StoreBackend string `koanf:"store_backend"`

	// DBPath locates the SQLite database file when store_backend is sqlite.
	DBPath string `koanf:"db_path"`

	// DBBusyTimeoutMS bounds how long SQLite waits on a locked database.
	DBBusyTimeoutMS int `koanf:"db_busy_timeout_ms"`

	// ExtractionLatencyMinMS and ExtractionLatencyMaxMS simulate external
	// model latency bounds for the feature extractors.
	ExtractionLatencyMinMS int `koanf:"extraction_latency_min_ms"`
	ExtractionLatencyMaxMS int `koanf:"extraction_latency_max_ms"`

	// ModalityWeights maps modality names to their aggregation weights.
	// Must sum to 1.0 when set; left empty the built-in weights apply.
	ModalityWeights map[string]float64 `koanf:"modality_weights"`

	// ClassificationThreshold overrides the positive-screening cut-off.
	// Zero keeps the built-in threshold.
	ClassificationThreshold float64 `koanf:"classification_threshold"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		StoreBackend:           StoreMemory,
		DBPath:                 filepath.Join("data", "sift.db"),
		DBBusyTimeoutMS:        5_000,
		ExtractionLatencyMinMS: 40,
		ExtractionLatencyMaxMS: 120,
	}
}
