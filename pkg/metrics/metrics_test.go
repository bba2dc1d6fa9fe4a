package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/sift/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline metrics", func() {
			So(func() {
				metrics.RecordAssessmentStarted()
				metrics.RecordAssessmentCompleted()
				metrics.RecordPositiveScreening()
				metrics.RecordStageViolation()
				metrics.RecordSubjectBusy()
				metrics.RecordExtractionLatency("speech", 42.0)
				metrics.RecordExtractionError("eye_tracking")
				metrics.RecordReportFailure()
				metrics.RecordSubscriptionActivated()
				metrics.RecordStorageError()
				metrics.RecordHTTPRequest("dashboard", "GET", "200")
				metrics.RecordHTTPRequestDuration("dashboard", "GET", "200", 3.5)
			}, ShouldNotPanic)
		})

		Convey("When scraping the metrics handler", func() {
			metrics.RecordAssessmentStarted()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			metrics.Handler().ServeHTTP(rec, req)

			Convey("Then the exposition should include our counters", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "sift_screening_assessments_started_total")
			})
		})
	})
}

func TestNewManager(t *testing.T) {
	Convey("Given a custom metrics manager", t, func() {
		m := metrics.NewManager(
			metrics.WithNamespace("custom"),
			metrics.WithSubsystem("pipeline"),
			metrics.WithHistogramBuckets([]float64{1, 10, 100}),
		)

		Convey("Then it should serve its own registry", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			m.Handler().ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusOK)
		})
	})
}
