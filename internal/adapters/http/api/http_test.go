package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/sift/internal/adapters/extract"
	api "github.com/okian/sift/internal/adapters/http/api"
	"github.com/okian/sift/internal/app"
	"github.com/okian/sift/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

func newTestMux() *http.ServeMux {
	fast := extract.WithLatencyRange(time.Millisecond, 2*time.Millisecond)
	svc := app.New(
		app.WithEyeTracker(extract.NewInMemoryEyeTracker(fast)),
		app.WithSpeechAnalyzer(extract.NewInMemorySpeechAnalyzer(fast)),
		app.WithHandwritingScanner(extract.NewInMemoryHandwritingScanner(fast)),
	)
	server := api.NewServer(svc, svc)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func postJSON(mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	So(err, ShouldBeNil)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func runToComplete(mux *http.ServeMux, subject string) {
	rec := postJSON(mux, "/questionnaire", map[string]any{
		"subject_id": subject,
		"responses":  map[string]bool{"q1": true, "q2": true},
	})
	So(rec.Code, ShouldEqual, http.StatusOK)

	rec = postJSON(mux, "/samples/video", map[string]any{
		"subject_id": subject, "video_ref": "v.mp4", "audio_ref": "a.wav",
	})
	So(rec.Code, ShouldEqual, http.StatusOK)

	rec = postJSON(mux, "/samples/handwriting", map[string]any{
		"subject_id": subject, "image_ref": "h.png",
	})
	So(rec.Code, ShouldEqual, http.StatusOK)
}

func TestQuestionnaireEndpoint(t *testing.T) {
	Convey("Given the API mounted on a mux", t, func() {
		mux := newTestMux()

		Convey("When posting a valid questionnaire", func() {
			rec := postJSON(mux, "/questionnaire", map[string]any{
				"subject_id": "subject-1",
				"responses":  map[string]bool{"q1": true, "q2": false, "q3": true},
			})

			Convey("Then it should return the initial probability", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var res app.QuestionnaireResult
				So(json.Unmarshal(rec.Body.Bytes(), &res), ShouldBeNil)
				So(res.InitialProbability, ShouldAlmostEqual, 2.0/3.0, 1e-3)
				So(res.ShouldProceed, ShouldBeTrue)
			})
		})

		Convey("When posting with a missing subject_id", func() {
			rec := postJSON(mux, "/questionnaire", map[string]any{
				"responses": map[string]bool{"q1": true},
			})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When posting malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/questionnaire", bytes.NewReader([]byte("{")))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When posting twice in a row", func() {
			first := postJSON(mux, "/questionnaire", map[string]any{
				"subject_id": "subject-1", "responses": map[string]bool{"q1": true},
			})
			So(first.Code, ShouldEqual, http.StatusOK)

			second := postJSON(mux, "/questionnaire", map[string]any{
				"subject_id": "subject-1", "responses": map[string]bool{"q1": true},
			})

			Convey("Then the repeat should conflict with the current stage", func() {
				So(second.Code, ShouldEqual, http.StatusConflict)
			})
		})
	})
}

func TestSampleEndpoints(t *testing.T) {
	Convey("Given the API mounted on a mux", t, func() {
		mux := newTestMux()

		Convey("When submitting a video sample without a questionnaire", func() {
			rec := postJSON(mux, "/samples/video", map[string]any{
				"subject_id": "ghost", "video_ref": "v.mp4", "audio_ref": "a.wav",
			})
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When submitting a handwriting sample at the wrong stage", func() {
			first := postJSON(mux, "/questionnaire", map[string]any{
				"subject_id": "subject-1", "responses": map[string]bool{"q1": true},
			})
			So(first.Code, ShouldEqual, http.StatusOK)

			rec := postJSON(mux, "/samples/handwriting", map[string]any{
				"subject_id": "subject-1", "image_ref": "h.png",
			})
			So(rec.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When walking the full pipeline", func() {
			runToComplete(mux, "subject-1")

			Convey("Then the completion payload withholds gated detail", func() {
				rec := get(mux, "/dashboard/subject-1")
				So(rec.Code, ShouldEqual, http.StatusOK)

				var view map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &view), ShouldBeNil)
				So(view["stage"], ShouldEqual, "complete")
				So(view["requires_subscription"], ShouldEqual, true)
				So(view["overall_probability"], ShouldBeNil)
			})
		})

		Convey("When a sample reference is empty", func() {
			rec := postJSON(mux, "/samples/video", map[string]any{
				"subject_id": "subject-1", "video_ref": "", "audio_ref": "a.wav",
			})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSubscribeAndDashboardEndpoints(t *testing.T) {
	Convey("Given a completed assessment", t, func() {
		mux := newTestMux()
		runToComplete(mux, "subject-1")

		Convey("When subscribing to the monthly plan", func() {
			rec := postJSON(mux, "/subscribe", map[string]any{
				"subject_id": "subject-1", "plan": "monthly",
			})

			Convey("Then the view unlocks", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var view map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &view), ShouldBeNil)
				So(view["subscription_active"], ShouldEqual, true)
				So(view["overall_probability"], ShouldNotBeNil)
			})
		})

		Convey("When subscribing to an unknown plan", func() {
			rec := postJSON(mux, "/subscribe", map[string]any{
				"subject_id": "subject-1", "plan": "weekly",
			})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When fetching an unknown subject's dashboard", func() {
			rec := get(mux, "/dashboard/ghost")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the dashboard path is malformed", func() {
			rec := get(mux, "/dashboard/")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API mounted on a mux", t, func() {
		mux := newTestMux()

		Convey("When probing /healthz", func() {
			rec := get(mux, "/healthz")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "ok")
		})

		Convey("When scraping /metrics", func() {
			rec := get(mux, "/metrics")
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When fetching /stats", func() {
			rec := get(mux, "/stats")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "records")
		})

		Convey("When using the wrong method", func() {
			rec := get(mux, "/questionnaire")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
