// Package metrics provides Prometheus metrics for the screening pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Pipeline metrics
	assessmentsStarted   prometheus.Counter
	assessmentsCompleted prometheus.Counter
	positiveScreenings   prometheus.Counter
	stageViolations      prometheus.Counter
	subjectBusyRejects   prometheus.Counter

	// Extraction metrics, labeled by modality
	extractionLatency *prometheus.HistogramVec
	extractionErrors  *prometheus.CounterVec

	// Report generation
	reportFailures prometheus.Counter

	// Subscription
	subscriptionsActivated prometheus.Counter

	// Storage
	storageErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Initialize global metrics on a private registry so the /metrics endpoint
// carries only our collectors.
func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sift",
		subsystem:        "screening",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics registers all collectors on the configured registry.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.assessmentsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assessments_started_total",
		Help:      "Total number of assessment runs started via questionnaire submission",
	})

	m.assessmentsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assessments_completed_total",
		Help:      "Total number of assessment runs that reached the Complete stage",
	})

	m.positiveScreenings = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "positive_screenings_total",
		Help:      "Total number of completed runs classified above the screening threshold",
	})

	m.stageViolations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_violations_total",
		Help:      "Total number of submissions rejected for targeting the wrong stage",
	})

	m.subjectBusyRejects = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subject_busy_rejections_total",
		Help:      "Total number of operations rejected because the subject had one in flight",
	})

	m.extractionLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extraction_latency_milliseconds",
		Help:      "Histogram of feature extraction latency in milliseconds per modality",
		Buckets:   m.histogramBuckets,
	}, []string{"modality"})

	m.extractionErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extraction_errors_total",
		Help:      "Total number of failed feature extraction calls per modality",
	}, []string{"modality"})

	m.reportFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_generation_failures_total",
		Help:      "Total number of narrative report generation failures (non-fatal)",
	})

	m.subscriptionsActivated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subscriptions_activated_total",
		Help:      "Total number of subscription activations",
	})

	m.storageErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "storage_errors_total",
		Help:      "Total number of record store failures",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// Handler returns an http.Handler serving the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Handler returns the global /metrics handler.
func Handler() http.Handler {
	return globalManager.Handler()
}

// Package-level helpers delegating to the global manager.

// RecordAssessmentStarted increments the started-runs counter.
func RecordAssessmentStarted() {
	globalManager.assessmentsStarted.Inc()
}

// RecordAssessmentCompleted increments the completed-runs counter.
func RecordAssessmentCompleted() {
	globalManager.assessmentsCompleted.Inc()
}

// RecordPositiveScreening increments the above-threshold classification counter.
func RecordPositiveScreening() {
	globalManager.positiveScreenings.Inc()
}

// RecordStageViolation increments the wrong-stage rejection counter.
func RecordStageViolation() {
	globalManager.stageViolations.Inc()
}

// RecordSubjectBusy increments the concurrent-operation rejection counter.
func RecordSubjectBusy() {
	globalManager.subjectBusyRejects.Inc()
}

// RecordExtractionLatency observes one extraction call's latency for a modality.
func RecordExtractionLatency(modality string, latencyMs float64) {
	globalManager.extractionLatency.WithLabelValues(modality).Observe(latencyMs)
}

// RecordExtractionError increments the extraction failure counter for a modality.
func RecordExtractionError(modality string) {
	globalManager.extractionErrors.WithLabelValues(modality).Inc()
}

// RecordReportFailure increments the report generation failure counter.
func RecordReportFailure() {
	globalManager.reportFailures.Inc()
}

// RecordSubscriptionActivated increments the subscription activation counter.
func RecordSubscriptionActivated() {
	globalManager.subscriptionsActivated.Inc()
}

// RecordStorageError increments the record store failure counter.
func RecordStorageError() {
	globalManager.storageErrors.Inc()
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes one HTTP request's duration.
func RecordHTTPRequestDuration(endpoint, method, status string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
}
