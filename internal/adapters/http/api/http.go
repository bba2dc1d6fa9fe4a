// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/sift/internal/adapters/extract"
	repository "github.com/okian/sift/internal/adapters/repository"
	"github.com/okian/sift/internal/app"
	"github.com/okian/sift/internal/domain/disclosure"
	"github.com/okian/sift/internal/domain/inflight"
	"github.com/okian/sift/internal/domain/stage"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SubmitQuestionnaire(ctx context.Context, subjectID string, responses map[string]bool) (app.QuestionnaireResult, error)
	SubmitVideoSample(ctx context.Context, subjectID, videoRef, audioRef string) error
	SubmitHandwritingSample(ctx context.Context, subjectID, imageRef string) (app.CompletionResult, error)
	Subscribe(ctx context.Context, subjectID, plan string) (disclosure.View, error)
	Dashboard(ctx context.Context, subjectID string) (disclosure.View, error)
}

// StatsProvider exposes service statistics for monitoring.
type StatsProvider interface {
	Stats(ctx context.Context) map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	questionnaireHandler *QuestionnaireHandler
	videoHandler         *VideoHandler
	handwritingHandler   *HandwritingHandler
	subscribeHandler     *SubscribeHandler
	dashboardHandler     *DashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		questionnaireHandler: NewQuestionnaireHandler(deps),
		videoHandler:         NewVideoHandler(deps),
		handwritingHandler:   NewHandwritingHandler(deps),
		subscribeHandler:     NewSubscribeHandler(deps),
		dashboardHandler:     NewDashboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/questionnaire", MetricsMiddleware(s.questionnaireHandler.HandlePostQuestionnaire, "questionnaire"))
	mux.HandleFunc("/samples/video", MetricsMiddleware(s.videoHandler.HandlePostVideo, "samples_video"))
	mux.HandleFunc("/samples/handwriting", MetricsMiddleware(s.handwritingHandler.HandlePostHandwriting, "samples_handwriting"))
	mux.HandleFunc("/subscribe", MetricsMiddleware(s.subscribeHandler.HandlePostSubscribe, "subscribe"))
	mux.HandleFunc("/dashboard/", MetricsMiddleware(s.dashboardHandler.HandleGetDashboard, "dashboard"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates pipeline errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stage.ErrStageViolation):
		writeError(w, http.StatusConflict, "stage_violation", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, inflight.ErrSubjectBusy):
		writeError(w, http.StatusTooManyRequests, "subject_busy", err)
	case errors.Is(err, extract.ErrExtraction):
		writeError(w, http.StatusUnprocessableEntity, "extraction_failed", err)
	case errors.Is(err, disclosure.ErrUnknownPlan):
		writeError(w, http.StatusBadRequest, "unknown_plan", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func missingField(name string) error {
	return errors.New("missing " + name)
}

func trimmed(s string) string { return strings.TrimSpace(s) }
