package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/sift/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.DBBusyTimeoutMS, convey.ShouldEqual, 5_000)
				convey.So(cfg.ExtractionLatencyMinMS, convey.ShouldEqual, 40)
				convey.So(cfg.ExtractionLatencyMaxMS, convey.ShouldEqual, 120)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SIFT_ADDR", ":8080")
			_ = os.Setenv("SIFT_STORE_BACKEND", "sqlite")
			_ = os.Setenv("SIFT_DB_PATH", "/tmp/sift-test.db")
			_ = os.Setenv("SIFT_EXTRACTION_LATENCY_MIN_MS", "10")
			_ = os.Setenv("SIFT_EXTRACTION_LATENCY_MAX_MS", "20")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/sift-test.db")
				convey.So(cfg.ExtractionLatencyMinMS, convey.ShouldEqual, 10)
				convey.So(cfg.ExtractionLatencyMaxMS, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
log_level: "debug"
store_backend: "sqlite"
db_path: "/tmp/sift.db"
classification_threshold: 0.65
modality_weights:
  eye_tracking: 0.25
  speech: 0.25
  handwriting: 0.5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SIFT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.ClassificationThreshold, convey.ShouldEqual, 0.65)
				convey.So(cfg.ModalityWeights["handwriting"], convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When env vars and a YAML file disagree", func() {
			yamlContent := `
addr: ":9090"
extraction_latency_min_ms: 60
extraction_latency_max_ms: 120
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SIFT_CONFIG", tmpFile)
			_ = os.Setenv("SIFT_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ExtractionLatencyMinMS, convey.ShouldEqual, 60)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("SIFT_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an empty addr", func() {
			_ = os.Setenv("SIFT_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store backend", func() {
			_ = os.Setenv("SIFT_STORE_BACKEND", "postgres")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with inverted latency bounds", func() {
			_ = os.Setenv("SIFT_EXTRACTION_LATENCY_MIN_MS", "200")
			_ = os.Setenv("SIFT_EXTRACTION_LATENCY_MAX_MS", "100")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When modality weights do not sum to one", func() {
			yamlContent := `
modality_weights:
  eye_tracking: 0.5
  speech: 0.2
  handwriting: 0.2
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SIFT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a partial YAML file", func() {
			yamlContent := `
addr: ":9090"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SIFT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge with defaults for missing fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.ExtractionLatencyMinMS, convey.ShouldEqual, 40)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"SIFT_CONFIG",
		"SIFT_ADDR",
		"SIFT_LOG_LEVEL",
		"SIFT_STORE_BACKEND",
		"SIFT_DB_PATH",
		"SIFT_DB_BUSY_TIMEOUT_MS",
		"SIFT_EXTRACTION_LATENCY_MIN_MS",
		"SIFT_EXTRACTION_LATENCY_MAX_MS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "sift-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
