// Package aggregate fuses per-modality probability signals into one overall
// score with a pass/fail classification and rule-based interpretations.
package aggregate

import (
	"math"

	"github.com/okian/sift/internal/domain/model"
)

// Default aggregation constants. The modality weights sum to 1.0; the
// questionnaire's initial probability is reported alongside but does not
// enter the weighted sum.
const (
	defaultEyeWeight         = 0.3
	defaultSpeechWeight      = 0.3
	defaultHandwritingWeight = 0.4

	// ClassificationThreshold is the cut-off the overall probability is
	// compared against for the boolean classification.
	ClassificationThreshold = 0.6

	// ProceedThreshold is the advisory cut-off for the questionnaire's
	// initial probability; callers may continue regardless.
	ProceedThreshold = 0.3

	weightSumTolerance = 1e-9
)

// Interpretation cut-offs. These are part of the domain contract and are
// relied on by downstream reporting.
const (
	handwritingHighCutoff     = 0.7
	handwritingModerateCutoff = 0.4
	irregularMovementCutoff   = 5
	fixationIssueCutoff       = 3
	regressionCutoff          = 4
	wordErrorRateCutoff       = 0.3
)

// Input carries every modality signal available for one run. Nil bundles are
// legal and contribute zero to the weighted sum.
type Input struct {
	QuestionnaireProbability float64
	Eye                      *model.EyeFeatures
	Speech                   *model.SpeechFeatures
	Handwriting              *model.HandwritingFeatures
}

// Result is the outcome of one aggregation.
type Result struct {
	OverallProbability float64
	Classification     bool
	Interpretations    map[model.Modality][]string
}

// Aggregator computes the weighted overall probability. It is pure and
// deterministic: identical inputs always produce identical results.
type Aggregator struct {
	eyeWeight         float64
	speechWeight      float64
	handwritingWeight float64
	threshold         float64
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWeights overrides the modality weights. Ignored unless the weights are
// non-negative and sum to exactly 1.0 (within floating point tolerance).
func WithWeights(eye, speech, handwriting float64) Option {
	return func(a *Aggregator) {
		if eye < 0 || speech < 0 || handwriting < 0 {
			return
		}
		if math.Abs(eye+speech+handwriting-1.0) > weightSumTolerance {
			return
		}
		a.eyeWeight = eye
		a.speechWeight = speech
		a.handwritingWeight = handwriting
	}
}

// WithThreshold overrides the classification threshold. Ignored unless the
// value lies in (0, 1).
func WithThreshold(threshold float64) Option {
	return func(a *Aggregator) {
		if threshold > 0 && threshold < 1 {
			a.threshold = threshold
		}
	}
}

// New creates an Aggregator with the default weights and threshold.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		eyeWeight:         defaultEyeWeight,
		speechWeight:      defaultSpeechWeight,
		handwritingWeight: defaultHandwritingWeight,
		threshold:         ClassificationThreshold,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Aggregate computes the overall probability, classification, and
// interpretation strings for the given input.
func (a *Aggregator) Aggregate(in Input) Result {
	var overall float64
	if in.Eye != nil {
		overall += a.eyeWeight * in.Eye.Probability
	}
	if in.Speech != nil {
		overall += a.speechWeight * in.Speech.Probability
	}
	if in.Handwriting != nil {
		overall += a.handwritingWeight * in.Handwriting.Probability
	}
	overall = clamp01(overall)

	return Result{
		OverallProbability: overall,
		Classification:     overall > a.threshold,
		Interpretations:    Interpret(in),
	}
}

// InitialProbability derives the questionnaire probability as the fraction
// of affirmative responses. An empty response set yields zero.
func InitialProbability(responses map[string]bool) float64 {
	if len(responses) == 0 {
		return 0
	}
	affirmative := 0
	for _, v := range responses {
		if v {
			affirmative++
		}
	}
	return float64(affirmative) / float64(len(responses))
}

// Interpret derives the deterministic interpretation strings for every
// modality present in the input. Absent modalities yield no entries.
func Interpret(in Input) map[model.Modality][]string {
	out := make(map[model.Modality][]string)

	if in.Eye != nil {
		var notes []string
		if in.Eye.IrregularMovements > irregularMovementCutoff {
			notes = append(notes, "irregular eye movement patterns observed during reading")
		}
		if in.Eye.FixationIssues > fixationIssueCutoff {
			notes = append(notes, "frequent fixation issues while tracking text")
		}
		if in.Eye.Regressions > regressionCutoff {
			notes = append(notes, "elevated number of regressions across lines")
		}
		if len(notes) > 0 {
			out[model.ModalityEyeTracking] = notes
		}
	}

	if in.Speech != nil && in.Speech.WordErrorRate > wordErrorRateCutoff {
		out[model.ModalitySpeech] = []string{
			"high word error rate against the reference passage",
		}
	}

	if in.Handwriting != nil {
		switch p := in.Handwriting.Probability; {
		case p > handwritingHighCutoff:
			out[model.ModalityHandwriting] = []string{
				"strong indicators in letter formation",
				"marked irregularity in spacing and alignment",
				"pronounced character reversals",
			}
		case p >= handwritingModerateCutoff:
			out[model.ModalityHandwriting] = []string{
				"some irregularities in letter formation",
				"occasional spacing inconsistencies",
			}
		}
	}

	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
