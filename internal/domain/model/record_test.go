package model_test

import (
	"testing"
	"time"

	model "github.com/okian/sift/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewAssessmentRecord(t *testing.T) {
	Convey("Given a fresh assessment record", t, func() {
		now := time.Now()
		rec := model.NewAssessmentRecord("subject-1", now)

		Convey("Then it should start at the questionnaire stage", func() {
			So(rec.Stage, ShouldEqual, model.StageQuestionnaire)
			So(rec.SubjectID, ShouldEqual, "subject-1")
			So(rec.CreatedAt, ShouldEqual, now)
		})

		Convey("And the reference passage should be fixed at creation", func() {
			So(rec.ReferenceText, ShouldEqual, model.ReferencePassage)
			So(rec.ReferenceText, ShouldContainSubstring, "quick brown fox")
		})

		Convey("And no modality features should be present yet", func() {
			So(rec.Features.Eye, ShouldBeNil)
			So(rec.Features.Speech, ShouldBeNil)
			So(rec.Features.Handwriting, ShouldBeNil)
		})

		Convey("And the subscription should be inactive", func() {
			So(rec.Subscription.Active, ShouldBeFalse)
		})
	})
}

func TestRecordClone(t *testing.T) {
	Convey("Given a populated assessment record", t, func() {
		rec := model.NewAssessmentRecord("subject-2", time.Now())
		rec.Questionnaire = &model.Questionnaire{
			Responses:          map[string]bool{"q1": true, "q2": false},
			InitialProbability: 0.5,
		}
		rec.Features.Eye = &model.EyeFeatures{FixationIssues: 4, Probability: 0.6}
		rec.Features.Speech = &model.SpeechFeatures{
			WordErrorRate: 0.25,
			MFCCMean:      []float64{1.0, 2.0},
			Probability:   0.4,
		}
		rec.Features.Handwriting = &model.HandwritingFeatures{
			Probability: 0.8,
			Confidence:  0.9,
			Descriptors: []string{"letter reversals"},
		}
		rec.Interpretations = map[model.Modality][]string{
			model.ModalityEyeTracking: {"frequent fixation issues"},
		}

		Convey("When cloning the record", func() {
			clone := rec.Clone()

			Convey("Then the clone should carry equal values", func() {
				So(clone.Questionnaire.InitialProbability, ShouldEqual, 0.5)
				So(clone.Features.Eye.Probability, ShouldEqual, 0.6)
				So(clone.Features.Speech.MFCCMean, ShouldResemble, []float64{1.0, 2.0})
				So(clone.Features.Handwriting.Descriptors, ShouldResemble, []string{"letter reversals"})
			})

			Convey("And mutating the clone should not touch the original", func() {
				clone.Questionnaire.Responses["q3"] = true
				clone.Features.Eye.Probability = 0.99
				clone.Features.Speech.MFCCMean[0] = 42
				clone.Interpretations[model.ModalityEyeTracking][0] = "changed"

				So(rec.Questionnaire.Responses, ShouldNotContainKey, "q3")
				So(rec.Features.Eye.Probability, ShouldEqual, 0.6)
				So(rec.Features.Speech.MFCCMean[0], ShouldEqual, 1.0)
				So(rec.Interpretations[model.ModalityEyeTracking][0], ShouldEqual, "frequent fixation issues")
			})
		})
	})
}

func TestHistoryEntryClone(t *testing.T) {
	Convey("Given a history entry with features", t, func() {
		entry := model.HistoryEntry{
			ID:                 "run-1",
			OverallProbability: 0.5,
			Features: model.FeatureSet{
				Handwriting: &model.HandwritingFeatures{Probability: 0.8},
			},
		}

		Convey("When cloned and mutated", func() {
			clone := entry.Clone()
			clone.Features.Handwriting.Probability = 0.1

			Convey("Then the original should be unchanged", func() {
				So(entry.Features.Handwriting.Probability, ShouldEqual, 0.8)
			})
		})
	})
}
