// Package model contains the domain types passed between pipeline layers.
package model

import "time"

// Stage identifies one step of the fixed linear assessment sequence.
type Stage string

// Assessment stages, in order.
const (
	StageQuestionnaire Stage = "questionnaire"
	StageVideo         Stage = "video"
	StageHandwriting   Stage = "handwriting"
	StageComplete      Stage = "complete"
)

// Modality identifies one evidence channel feeding the aggregator.
type Modality string

// Evidence modalities.
const (
	ModalityEyeTracking   Modality = "eye_tracking"
	ModalitySpeech        Modality = "speech"
	ModalityHandwriting   Modality = "handwriting"
	ModalityQuestionnaire Modality = "questionnaire"
)

// Plan names accepted by Subscribe.
const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

// EyeFeatures is the feature bundle produced by the eye-tracking adapter.
type EyeFeatures struct {
	FixationIssues     int     `json:"fixation_issues"`
	Regressions        int     `json:"regressions"`
	IrregularMovements int     `json:"irregular_movements"`
	Probability        float64 `json:"probability"`
}

// SpeechFeatures is the feature bundle produced by the speech adapter.
// The acoustic vectors mirror the cepstral/spectral statistics the
// analysis backend reports.
type SpeechFeatures struct {
	ReferenceText        string    `json:"reference_text"`
	Hypothesis           string    `json:"hypothesis"`
	WordErrorRate        float64   `json:"word_error_rate"`
	MFCCMean             []float64 `json:"mfcc_mean,omitempty"`
	MFCCStd              []float64 `json:"mfcc_std,omitempty"`
	SpectralContrastMean []float64 `json:"spectral_contrast_mean,omitempty"`
	SpectralContrastStd  []float64 `json:"spectral_contrast_std,omitempty"`
	ZeroCrossingRateMean float64   `json:"zero_crossing_rate_mean"`
	ZeroCrossingRateStd  float64   `json:"zero_crossing_rate_std"`
	RMSEnergyMean        float64   `json:"rms_energy_mean"`
	RMSEnergyStd         float64   `json:"rms_energy_std"`
	Probability          float64   `json:"probability"`
}

// HandwritingFeatures is the feature bundle produced by the handwriting adapter.
type HandwritingFeatures struct {
	Probability float64  `json:"probability"`
	Confidence  float64  `json:"confidence"`
	Descriptors []string `json:"descriptors,omitempty"`
}

// FeatureSet holds the per-modality bundles collected so far. A nil pointer
// means that modality has not been extracted yet; the aggregator treats it
// as contributing zero.
type FeatureSet struct {
	Eye         *EyeFeatures         `json:"eye,omitempty"`
	Speech      *SpeechFeatures      `json:"speech,omitempty"`
	Handwriting *HandwritingFeatures `json:"handwriting,omitempty"`
}

// Clone returns a deep copy of the feature set.
func (f FeatureSet) Clone() FeatureSet {
	out := FeatureSet{}
	if f.Eye != nil {
		eye := *f.Eye
		out.Eye = &eye
	}
	if f.Speech != nil {
		sp := *f.Speech
		sp.MFCCMean = append([]float64(nil), f.Speech.MFCCMean...)
		sp.MFCCStd = append([]float64(nil), f.Speech.MFCCStd...)
		sp.SpectralContrastMean = append([]float64(nil), f.Speech.SpectralContrastMean...)
		sp.SpectralContrastStd = append([]float64(nil), f.Speech.SpectralContrastStd...)
		out.Speech = &sp
	}
	if f.Handwriting != nil {
		hw := *f.Handwriting
		hw.Descriptors = append([]string(nil), f.Handwriting.Descriptors...)
		out.Handwriting = &hw
	}
	return out
}

// Questionnaire holds the self-report responses and the probability derived
// from them. Set once when the record advances to the video stage and
// immutable for the remainder of the run.
type Questionnaire struct {
	Responses          map[string]bool `json:"responses"`
	InitialProbability float64         `json:"initial_probability"`
	SubmittedAt        time.Time       `json:"submitted_at"`
}

// Subscription gates how much of the record the disclosure policy reveals.
// It mutates independently of assessment progress.
type Subscription struct {
	Active    bool      `json:"active"`
	Plan      string    `json:"plan,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// HistoryEntry is an immutable snapshot of one completed assessment run.
type HistoryEntry struct {
	ID                 string                `json:"id"`
	CompletedAt        time.Time             `json:"completed_at"`
	OverallProbability float64               `json:"overall_probability"`
	Classification     bool                  `json:"classification"`
	Report             string                `json:"report"`
	Features           FeatureSet            `json:"features"`
	Interpretations    map[Modality][]string `json:"interpretations,omitempty"`
}

// AssessmentRecord is the single mutable record tracking a subject's
// progress through the pipeline. All writes go through the orchestrator.
type AssessmentRecord struct {
	SubjectID          string                `json:"subject_id"`
	Stage              Stage                 `json:"stage"`
	ReferenceText      string                `json:"reference_text"`
	Questionnaire      *Questionnaire        `json:"questionnaire,omitempty"`
	Features           FeatureSet            `json:"features"`
	OverallProbability float64               `json:"overall_probability"`
	Classification     bool                  `json:"classification"`
	Interpretations    map[Modality][]string `json:"interpretations,omitempty"`
	Report             string                `json:"report"`
	Subscription       Subscription          `json:"subscription"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// Clone returns a deep copy of the record, history excluded. Stores hand out
// clones so callers never alias the persisted value.
func (r AssessmentRecord) Clone() AssessmentRecord {
	out := r
	out.Features = r.Features.Clone()
	if r.Questionnaire != nil {
		q := *r.Questionnaire
		q.Responses = make(map[string]bool, len(r.Questionnaire.Responses))
		for k, v := range r.Questionnaire.Responses {
			q.Responses[k] = v
		}
		out.Questionnaire = &q
	}
	out.Interpretations = cloneInterpretations(r.Interpretations)
	return out
}

func cloneInterpretations(in map[Modality][]string) map[Modality][]string {
	if in == nil {
		return nil
	}
	out := make(map[Modality][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Clone returns a deep copy of the history entry.
func (e HistoryEntry) Clone() HistoryEntry {
	out := e
	out.Features = e.Features.Clone()
	out.Interpretations = cloneInterpretations(e.Interpretations)
	return out
}

// ReferencePassage is the fixed prompt a subject reads aloud during the
// video stage; the speech adapter scores the transcript against it.
const ReferencePassage = "The quick brown fox jumps over the lazy dog. " +
	"She sells seashells by the seashore. " +
	"Peter Piper picked a peck of pickled peppers."

// NewAssessmentRecord creates an empty record at the questionnaire stage.
func NewAssessmentRecord(subjectID string, now time.Time) AssessmentRecord {
	return AssessmentRecord{
		SubjectID:     subjectID,
		Stage:         StageQuestionnaire,
		ReferenceText: ReferencePassage,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
