package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/sift/internal/adapters/extract"
	"github.com/okian/sift/internal/adapters/http/api"
	repository "github.com/okian/sift/internal/adapters/repository"
	app "github.com/okian/sift/internal/app"
	"github.com/okian/sift/internal/config"
	"github.com/okian/sift/internal/domain/aggregate"
	"github.com/okian/sift/internal/domain/model"
	"github.com/okian/sift/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Disable default Go metrics collection; the custom registry carries
	// the service metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Select the record store backend.
	var store repository.Store
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		sqlStore, err := repository.NewSQLStore(ctx, cfg.DBPath,
			repository.WithBusyTimeout(time.Duration(cfg.DBBusyTimeoutMS)*time.Millisecond))
		if err != nil {
			os.Stderr.WriteString("failed to open record store: " + err.Error() + "\n")
			return
		}
		defer func() { _ = sqlStore.Close() }()
		store = sqlStore
	default:
		store = repository.NewMemStore()
	}

	latency := extract.WithLatencyRange(
		time.Duration(cfg.ExtractionLatencyMinMS)*time.Millisecond,
		time.Duration(cfg.ExtractionLatencyMaxMS)*time.Millisecond,
	)

	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithStore(store),
		app.WithEyeTracker(extract.NewInMemoryEyeTracker(latency)),
		app.WithSpeechAnalyzer(extract.NewInMemorySpeechAnalyzer(latency)),
		app.WithHandwritingScanner(extract.NewInMemoryHandwritingScanner(latency)),
		app.WithAggregator(newAggregator(cfg)),
	)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newAggregator builds the aggregator from configured overrides, falling
// back to built-in weights and threshold where unset.
func newAggregator(cfg *config.Config) *aggregate.Aggregator {
	var opts []aggregate.Option
	if len(cfg.ModalityWeights) > 0 {
		opts = append(opts, aggregate.WithWeights(
			cfg.ModalityWeights[string(model.ModalityEyeTracking)],
			cfg.ModalityWeights[string(model.ModalitySpeech)],
			cfg.ModalityWeights[string(model.ModalityHandwriting)],
		))
	}
	if cfg.ClassificationThreshold != 0 {
		opts = append(opts, aggregate.WithThreshold(cfg.ClassificationThreshold))
	}
	return aggregate.New(opts...)
}
