package app

import (
	"time"

	"github.com/okian/sift/internal/adapters/extract"
	"github.com/okian/sift/internal/adapters/reportgen"
	repository "github.com/okian/sift/internal/adapters/repository"
	"github.com/okian/sift/internal/domain/aggregate"
	"github.com/okian/sift/internal/domain/inflight"
	"github.com/okian/sift/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEyeTracker sets the eye-tracking adapter.
func WithEyeTracker(t extract.EyeTracker) Option {
	return func(s *Service) {
		if t != nil {
			s.eye = t
		}
	}
}

// WithSpeechAnalyzer sets the speech adapter.
func WithSpeechAnalyzer(a extract.SpeechAnalyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.speech = a
		}
	}
}

// WithHandwritingScanner sets the handwriting adapter.
func WithHandwritingScanner(h extract.HandwritingScanner) Option {
	return func(s *Service) {
		if h != nil {
			s.handwriting = h
		}
	}
}

// WithReportGenerator sets the narrative report generator.
func WithReportGenerator(g reportgen.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithAggregator sets the probability aggregator.
func WithAggregator(a *aggregate.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithSampleDiscarder sets the compensating cleanup collaborator.
func WithSampleDiscarder(d SampleDiscarder) Option {
	return func(s *Service) {
		if d != nil {
			s.discarder = d
		}
	}
}

// WithInFlightRegistry sets the per-subject single-writer guard.
func WithInFlightRegistry(r inflight.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.guard = r
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
