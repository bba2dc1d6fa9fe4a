// Package extract defines the feature extraction adapter contracts and
// in-memory implementations that simulate the external analysis backends.
package extract

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/okian/sift/internal/domain/model"
)

// Default simulation constants.
const (
	defaultMinLatency = 40 * time.Millisecond
	defaultMaxLatency = 120 * time.Millisecond

	probabilitySteps = 1000
	mfccCoefficients = 13
)

// EyeTracker extracts gaze features from a recorded video sample.
type EyeTracker interface {
	// Extract analyzes the referenced video, honoring ctx for cancellation.
	Extract(ctx context.Context, videoRef string) (model.EyeFeatures, error)
}

// SpeechAnalyzer extracts acoustic features and a transcript comparison from
// a recorded audio sample read against a fixed reference text.
type SpeechAnalyzer interface {
	Extract(ctx context.Context, audioRef, referenceText string) (model.SpeechFeatures, error)
}

// HandwritingScanner extracts features from a handwriting image sample.
type HandwritingScanner interface {
	Extract(ctx context.Context, imageRef string) (model.HandwritingFeatures, error)
}

// sim holds the shared simulation tunables. Output is a deterministic
// function of the input reference, so re-invoking an adapter with the same
// input is idempotent.
type sim struct {
	minLatency time.Duration
	maxLatency time.Duration
}

func newSim(opts []Option) sim {
	s := sim{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// wait simulates backend latency derived from the input hash, honoring ctx.
func (s sim) wait(ctx context.Context, h uint64) error {
	span := s.maxLatency - s.minLatency
	latency := s.minLatency
	if span > 0 {
		latency += time.Duration(h % uint64(span)) //nolint:gosec // bounded by span
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("extraction canceled: %w", ctx.Err())
	case <-time.After(latency):
		return nil
	}
}

func hashRef(ref string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ref))
	return h.Sum64()
}

// unit maps a hash to [0, 1] with probabilitySteps resolution.
func unit(h uint64) float64 {
	return float64(h%probabilitySteps) / float64(probabilitySteps-1)
}

// InMemoryEyeTracker simulates the eye-tracking analysis backend.
type InMemoryEyeTracker struct {
	sim sim
}

// NewInMemoryEyeTracker creates a simulated eye-tracking adapter.
func NewInMemoryEyeTracker(opts ...Option) *InMemoryEyeTracker {
	return &InMemoryEyeTracker{sim: newSim(opts)}
}

// Extract derives fixation, regression, and irregular-movement counts plus a
// probability from the referenced video.
func (t *InMemoryEyeTracker) Extract(ctx context.Context, videoRef string) (model.EyeFeatures, error) {
	if strings.TrimSpace(videoRef) == "" {
		return model.EyeFeatures{}, fmt.Errorf("%w: empty video reference", ErrExtraction)
	}
	h := hashRef(videoRef)
	if err := t.sim.wait(ctx, h); err != nil {
		return model.EyeFeatures{}, err
	}
	return model.EyeFeatures{
		FixationIssues:     int(h % 8),        //nolint:gosec // bounded modulus
		Regressions:        int(h >> 3 % 9),   //nolint:gosec // bounded modulus
		IrregularMovements: int(h >> 7 % 11),  //nolint:gosec // bounded modulus
		Probability:        unit(h >> 11),
	}, nil
}

// InMemorySpeechAnalyzer simulates the speech analysis backend.
type InMemorySpeechAnalyzer struct {
	sim sim
}

// NewInMemorySpeechAnalyzer creates a simulated speech adapter.
func NewInMemorySpeechAnalyzer(opts ...Option) *InMemorySpeechAnalyzer {
	return &InMemorySpeechAnalyzer{sim: newSim(opts)}
}

// Extract derives a transcript hypothesis, word-error-rate, and acoustic
// statistics from the referenced audio read against referenceText.
func (a *InMemorySpeechAnalyzer) Extract(ctx context.Context, audioRef, referenceText string) (model.SpeechFeatures, error) {
	if strings.TrimSpace(audioRef) == "" {
		return model.SpeechFeatures{}, fmt.Errorf("%w: empty audio reference", ErrExtraction)
	}
	if strings.TrimSpace(referenceText) == "" {
		return model.SpeechFeatures{}, fmt.Errorf("%w: empty reference text", ErrExtraction)
	}
	h := hashRef(audioRef)
	if err := a.sim.wait(ctx, h); err != nil {
		return model.SpeechFeatures{}, err
	}

	// Simulate a hypothesis by dropping every n-th word of the reference.
	words := strings.Fields(referenceText)
	dropEvery := 3 + int(h%5) //nolint:gosec // bounded modulus
	kept := make([]string, 0, len(words))
	dropped := 0
	for i, w := range words {
		if (i+1)%dropEvery == 0 {
			dropped++
			continue
		}
		kept = append(kept, w)
	}
	wer := 0.0
	if len(words) > 0 {
		wer = float64(dropped) / float64(len(words))
	}

	mfccMean := make([]float64, mfccCoefficients)
	mfccStd := make([]float64, mfccCoefficients)
	for i := range mfccMean {
		mfccMean[i] = unit(h >> uint(i%16))      //nolint:gosec // bounded shift
		mfccStd[i] = unit(h >> uint((i+5)%16)) / 2 //nolint:gosec // bounded shift
	}

	return model.SpeechFeatures{
		ReferenceText:        referenceText,
		Hypothesis:           strings.Join(kept, " "),
		WordErrorRate:        wer,
		MFCCMean:             mfccMean,
		MFCCStd:              mfccStd,
		SpectralContrastMean: []float64{unit(h >> 2), unit(h >> 4)},
		SpectralContrastStd:  []float64{unit(h >> 6) / 2, unit(h >> 8) / 2},
		ZeroCrossingRateMean: unit(h >> 9) / 10,
		ZeroCrossingRateStd:  unit(h >> 10) / 20,
		RMSEnergyMean:        unit(h >> 12),
		RMSEnergyStd:         unit(h >> 13) / 4,
		Probability:          unit(h >> 14),
	}, nil
}

// InMemoryHandwritingScanner simulates the handwriting model backend.
type InMemoryHandwritingScanner struct {
	sim sim
}

// NewInMemoryHandwritingScanner creates a simulated handwriting adapter.
func NewInMemoryHandwritingScanner(opts ...Option) *InMemoryHandwritingScanner {
	return &InMemoryHandwritingScanner{sim: newSim(opts)}
}

// Extract derives a probability, confidence, and descriptor strings from the
// referenced handwriting image.
func (s *InMemoryHandwritingScanner) Extract(ctx context.Context, imageRef string) (model.HandwritingFeatures, error) {
	if strings.TrimSpace(imageRef) == "" {
		return model.HandwritingFeatures{}, fmt.Errorf("%w: empty image reference", ErrExtraction)
	}
	h := hashRef(imageRef)
	if err := s.sim.wait(ctx, h); err != nil {
		return model.HandwritingFeatures{}, err
	}

	p := unit(h >> 5)
	descriptors := []string{"baseline drift"}
	if p > 0.5 {
		descriptors = append(descriptors, "inconsistent letter sizing")
	}
	return model.HandwritingFeatures{
		Probability: p,
		Confidence:  0.5 + unit(h>>9)/2,
		Descriptors: descriptors,
	}, nil
}
