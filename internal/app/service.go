// Package app provides the pipeline orchestrator composing the stage state
// machine, extraction adapters, aggregator, disclosure gate, and record
// store.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sift/internal/adapters/extract"
	"github.com/okian/sift/internal/adapters/reportgen"
	repository "github.com/okian/sift/internal/adapters/repository"
	"github.com/okian/sift/internal/domain/aggregate"
	"github.com/okian/sift/internal/domain/disclosure"
	"github.com/okian/sift/internal/domain/inflight"
	"github.com/okian/sift/internal/domain/model"
	"github.com/okian/sift/internal/domain/stage"
	"github.com/okian/sift/pkg/logger"
	"github.com/okian/sift/pkg/metrics"
)

// SampleDiscarder removes media sample references tied to a failed
// submission. The default implementation is a no-op; integrators plug in
// their storage cleanup.
type SampleDiscarder interface {
	Discard(ctx context.Context, refs ...string) error
}

type noopDiscarder struct{}

func (noopDiscarder) Discard(context.Context, ...string) error { return nil }

// QuestionnaireResult is returned by SubmitQuestionnaire. ShouldProceed is
// advisory only; the caller may continue regardless.
type QuestionnaireResult struct {
	InitialProbability float64 `json:"initial_probability"`
	ShouldProceed      bool    `json:"should_proceed"`
}

// CompletionResult is returned by SubmitHandwritingSample once the run
// reaches the terminal stage. Detail beyond classification and probability
// is carried in View, already filtered by the disclosure gate.
type CompletionResult struct {
	Classification       bool            `json:"classification"`
	OverallProbability   float64         `json:"overall_probability"`
	RequiresSubscription bool            `json:"requires_subscription"`
	ReportAvailable      bool            `json:"report_available"`
	View                 disclosure.View `json:"view"`
}

// Service is the pipeline orchestrator. One logical run per subject at a
// time; operations for distinct subjects proceed independently.
type Service struct {
	store       repository.Store
	eye         extract.EyeTracker
	speech      extract.SpeechAnalyzer
	handwriting extract.HandwritingScanner
	generator   reportgen.Generator
	aggregator  *aggregate.Aggregator
	discarder   SampleDiscarder
	guard       inflight.Registry
	logger      logger.Logger
	now         func() time.Time
}

// New constructs a Service with in-memory defaults for every collaborator.
func New(opts ...Option) *Service {
	s := &Service{
		discarder: noopDiscarder{},
		guard:     inflight.NewInMemoryRegistry(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	if s.eye == nil {
		s.eye = extract.NewInMemoryEyeTracker()
	}
	if s.speech == nil {
		s.speech = extract.NewInMemorySpeechAnalyzer()
	}
	if s.handwriting == nil {
		s.handwriting = extract.NewInMemoryHandwritingScanner()
	}
	if s.generator == nil {
		s.generator = reportgen.NewInMemoryGenerator()
	}
	if s.aggregator == nil {
		s.aggregator = aggregate.New()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("pipeline")
	}

	return s
}

// acquire claims the subject for the duration of one operation.
func (s *Service) acquire(ctx context.Context, subjectID string) error {
	if err := s.guard.Acquire(ctx, subjectID); err != nil {
		metrics.RecordSubjectBusy()
		return err
	}
	return nil
}

// SubmitQuestionnaire records self-report responses and advances the record
// to the video stage. A submission against a Complete record starts a fresh
// run on the same record; prior history is retained.
func (s *Service) SubmitQuestionnaire(ctx context.Context, subjectID string, responses map[string]bool) (QuestionnaireResult, error) {
	if err := s.acquire(ctx, subjectID); err != nil {
		return QuestionnaireResult{}, err
	}
	defer s.guard.Release(ctx, subjectID)

	now := s.now()
	initial := aggregate.InitialProbability(responses)

	rec, err := s.store.Get(ctx, subjectID)
	switch {
	case err == nil:
		if rec.Stage != model.StageQuestionnaire && rec.Stage != model.StageComplete {
			metrics.RecordStageViolation()
			return QuestionnaireResult{}, fmt.Errorf(
				"%w: record at %q, submission for %q", stage.ErrStageViolation, rec.Stage, model.StageQuestionnaire)
		}
	case isNotFound(err):
		if createErr := s.store.Create(ctx, model.NewAssessmentRecord(subjectID, now)); createErr != nil {
			metrics.RecordStorageError()
			return QuestionnaireResult{}, createErr
		}
	default:
		metrics.RecordStorageError()
		return QuestionnaireResult{}, err
	}

	if _, err := s.store.Update(ctx, subjectID, func(r *model.AssessmentRecord) error {
		if r.Stage == model.StageComplete {
			// Fresh run on the same record: prior results are cleared, the
			// history ledger is untouched.
			r.Stage = model.StageQuestionnaire
			r.Features = model.FeatureSet{}
			r.OverallProbability = 0
			r.Classification = false
			r.Interpretations = nil
			r.Report = ""
		}
		r.Questionnaire = &model.Questionnaire{
			Responses:          responses,
			InitialProbability: initial,
			SubmittedAt:        now,
		}
		r.UpdatedAt = now
		return stage.Advance(r)
	}); err != nil {
		if isStorage(err) {
			metrics.RecordStorageError()
		}
		return QuestionnaireResult{}, err
	}

	metrics.RecordAssessmentStarted()
	s.logger.Info(ctx, "questionnaire submitted",
		logger.String("subject", subjectID),
		logger.Float64("initialProbability", initial),
	)

	return QuestionnaireResult{
		InitialProbability: initial,
		ShouldProceed:      initial > aggregate.ProceedThreshold,
	}, nil
}

// SubmitVideoSample extracts eye-tracking and speech features from one
// recording. The two adapters run concurrently with join semantics: unless
// both succeed nothing is persisted and the stage stays at Video.
func (s *Service) SubmitVideoSample(ctx context.Context, subjectID, videoRef, audioRef string) error {
	if err := s.acquire(ctx, subjectID); err != nil {
		return err
	}
	defer s.guard.Release(ctx, subjectID)

	rec, err := s.store.Get(ctx, subjectID)
	if err != nil {
		if isStorage(err) {
			metrics.RecordStorageError()
		}
		return err
	}
	if err := stage.Require(rec.Stage, model.StageVideo); err != nil {
		metrics.RecordStageViolation()
		return err
	}

	var (
		wg        sync.WaitGroup
		eyeFeats  model.EyeFeatures
		eyeErr    error
		speechFts model.SpeechFeatures
		speechErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		start := time.Now()
		eyeFeats, eyeErr = s.eye.Extract(ctx, videoRef)
		metrics.RecordExtractionLatency(string(model.ModalityEyeTracking), float64(time.Since(start).Milliseconds()))
	}()
	go func() {
		defer wg.Done()
		start := time.Now()
		speechFts, speechErr = s.speech.Extract(ctx, audioRef, rec.ReferenceText)
		metrics.RecordExtractionLatency(string(model.ModalitySpeech), float64(time.Since(start).Milliseconds()))
	}()
	wg.Wait()

	if eyeErr != nil || speechErr != nil {
		if eyeErr != nil {
			metrics.RecordExtractionError(string(model.ModalityEyeTracking))
		}
		if speechErr != nil {
			metrics.RecordExtractionError(string(model.ModalitySpeech))
		}
		s.cleanup(ctx, subjectID, videoRef, audioRef)
		if eyeErr != nil {
			return eyeErr
		}
		return speechErr
	}

	if _, err := s.store.Update(ctx, subjectID, func(r *model.AssessmentRecord) error {
		if err := stage.Require(r.Stage, model.StageVideo); err != nil {
			return err
		}
		r.Features.Eye = &eyeFeats
		r.Features.Speech = &speechFts
		r.UpdatedAt = s.now()
		return stage.Advance(r)
	}); err != nil {
		if isStorage(err) {
			metrics.RecordStorageError()
		}
		s.cleanup(ctx, subjectID, videoRef, audioRef)
		return err
	}

	s.logger.Info(ctx, "video sample processed",
		logger.String("subject", subjectID),
		logger.Float64("eyeProbability", eyeFeats.Probability),
		logger.Float64("speechProbability", speechFts.Probability),
	)
	return nil
}

// SubmitHandwritingSample extracts handwriting features, aggregates all
// modality signals, generates the narrative report best-effort, appends a
// history entry, and advances the record to Complete.
func (s *Service) SubmitHandwritingSample(ctx context.Context, subjectID, imageRef string) (CompletionResult, error) {
	if err := s.acquire(ctx, subjectID); err != nil {
		return CompletionResult{}, err
	}
	defer s.guard.Release(ctx, subjectID)

	rec, err := s.store.Get(ctx, subjectID)
	if err != nil {
		if isStorage(err) {
			metrics.RecordStorageError()
		}
		return CompletionResult{}, err
	}
	if err := stage.Require(rec.Stage, model.StageHandwriting); err != nil {
		metrics.RecordStageViolation()
		return CompletionResult{}, err
	}

	start := time.Now()
	hwFeats, err := s.handwriting.Extract(ctx, imageRef)
	metrics.RecordExtractionLatency(string(model.ModalityHandwriting), float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordExtractionError(string(model.ModalityHandwriting))
		s.cleanup(ctx, subjectID, imageRef)
		return CompletionResult{}, err
	}

	var initial float64
	if rec.Questionnaire != nil {
		initial = rec.Questionnaire.InitialProbability
	}
	result := s.aggregator.Aggregate(aggregate.Input{
		QuestionnaireProbability: initial,
		Eye:                      rec.Features.Eye,
		Speech:                   rec.Features.Speech,
		Handwriting:              &hwFeats,
	})

	// Report generation is best-effort: a failure never fails the run.
	reportText, genErr := s.generator.Generate(ctx, reportgen.Request{
		InitialProbability: initial,
		OverallProbability: result.OverallProbability,
		Classification:     result.Classification,
		Features: model.FeatureSet{
			Eye:         rec.Features.Eye,
			Speech:      rec.Features.Speech,
			Handwriting: &hwFeats,
		},
		Interpretations: result.Interpretations,
	})
	if genErr != nil {
		metrics.RecordReportFailure()
		s.logger.Warn(ctx, "report generation unavailable",
			logger.String("subject", subjectID),
			logger.Error(genErr),
		)
		reportText = ""
	}

	now := s.now()
	updated, err := s.store.Update(ctx, subjectID, func(r *model.AssessmentRecord) error {
		if err := stage.Require(r.Stage, model.StageHandwriting); err != nil {
			return err
		}
		r.Features.Handwriting = &hwFeats
		r.OverallProbability = result.OverallProbability
		r.Classification = result.Classification
		r.Interpretations = result.Interpretations
		r.Report = reportText
		r.UpdatedAt = now
		return stage.Advance(r)
	})
	if err != nil {
		if isStorage(err) {
			metrics.RecordStorageError()
		}
		s.cleanup(ctx, subjectID, imageRef)
		return CompletionResult{}, err
	}

	entry := model.HistoryEntry{
		ID:                 uuid.NewString(),
		CompletedAt:        now,
		OverallProbability: result.OverallProbability,
		Classification:     result.Classification,
		Report:             reportText,
		Features:           updated.Features.Clone(),
		Interpretations:    result.Interpretations,
	}
	if err := s.store.AppendHistory(ctx, subjectID, entry); err != nil {
		metrics.RecordStorageError()
		return CompletionResult{}, err
	}

	metrics.RecordAssessmentCompleted()
	if result.Classification {
		metrics.RecordPositiveScreening()
	}
	s.logger.Info(ctx, "assessment completed",
		logger.String("subject", subjectID),
		logger.Float64("overallProbability", result.OverallProbability),
		logger.Bool("classification", result.Classification),
		logger.Bool("reportAvailable", genErr == nil),
	)

	history, err := s.store.History(ctx, subjectID)
	if err != nil {
		metrics.RecordStorageError()
		return CompletionResult{}, err
	}
	active := disclosure.Active(updated.Subscription, now)
	return CompletionResult{
		Classification:       result.Classification,
		OverallProbability:   result.OverallProbability,
		RequiresSubscription: !active,
		ReportAvailable:      genErr == nil,
		View:                 disclosure.ViewOf(updated, history, now),
	}, nil
}

// Subscribe activates the given plan for the subject and returns the
// now-unlocked view. Aggregation is never re-run.
func (s *Service) Subscribe(ctx context.Context, subjectID, plan string) (disclosure.View, error) {
	if err := s.acquire(ctx, subjectID); err != nil {
		return disclosure.View{}, err
	}
	defer s.guard.Release(ctx, subjectID)

	now := s.now()
	sub, err := disclosure.Activate(plan, now)
	if err != nil {
		return disclosure.View{}, err
	}

	updated, err := s.store.Update(ctx, subjectID, func(r *model.AssessmentRecord) error {
		r.Subscription = sub
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		if isStorage(err) {
			metrics.RecordStorageError()
		}
		return disclosure.View{}, err
	}

	metrics.RecordSubscriptionActivated()
	s.logger.Info(ctx, "subscription activated",
		logger.String("subject", subjectID),
		logger.String("plan", plan),
	)

	history, err := s.store.History(ctx, subjectID)
	if err != nil {
		metrics.RecordStorageError()
		return disclosure.View{}, err
	}
	return disclosure.ViewOf(updated, history, now), nil
}

// Dashboard returns the disclosure-filtered view of the subject's record.
func (s *Service) Dashboard(ctx context.Context, subjectID string) (disclosure.View, error) {
	rec, err := s.store.Get(ctx, subjectID)
	if err != nil {
		if isStorage(err) {
			metrics.RecordStorageError()
		}
		return disclosure.View{}, err
	}

	now := s.now()
	var history []model.HistoryEntry
	if disclosure.Active(rec.Subscription, now) {
		history, err = s.store.History(ctx, subjectID)
		if err != nil {
			metrics.RecordStorageError()
			return disclosure.View{}, err
		}
	}
	return disclosure.ViewOf(rec, history, now), nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"records":  s.store.Count(ctx),
		"inFlight": s.guard.Size(),
	}
}

// cleanup discards media references tied to a failed submission before the
// error propagates.
func (s *Service) cleanup(ctx context.Context, subjectID string, refs ...string) {
	if err := s.discarder.Discard(ctx, refs...); err != nil {
		s.logger.Warn(ctx, "sample cleanup failed",
			logger.String("subject", subjectID),
			logger.Error(err),
		)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func isStorage(err error) bool {
	return errors.Is(err, repository.ErrStorage)
}
