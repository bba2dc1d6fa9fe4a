package extract

import "time"

// Option applies a configuration option to a simulated adapter.
type Option func(*sim)

// WithLatencyRange sets the simulated backend latency bounds.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *sim) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}
