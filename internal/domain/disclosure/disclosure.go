// Package disclosure implements the subscription-gated view policy over
// assessment records.
package disclosure

import (
	"fmt"
	"time"

	"github.com/okian/sift/internal/domain/model"
	"github.com/okian/sift/internal/domain/report"
)

// Plan durations applied on activation.
const (
	monthlyDuration = 30 * 24 * time.Hour
	yearlyDuration  = 365 * 24 * time.Hour
)

// View is the caller-facing projection of a record. Gated fields are nil on
// a redacted view and populated on a full one.
type View struct {
	SubjectID            string                      `json:"subject_id"`
	Stage                model.Stage                 `json:"stage"`
	Classification       bool                        `json:"classification"`
	SubscriptionActive   bool                        `json:"subscription_active"`
	Plan                 string                      `json:"plan,omitempty"`
	RequiresSubscription bool                        `json:"requires_subscription"`
	InitialProbability   *float64                    `json:"initial_probability,omitempty"`
	OverallProbability   *float64                    `json:"overall_probability,omitempty"`
	Features             *model.FeatureSet           `json:"features,omitempty"`
	Interpretations      map[model.Modality][]string `json:"interpretations,omitempty"`
	Report               *report.Sections            `json:"report,omitempty"`
	History              []model.HistoryEntry        `json:"history,omitempty"`
}

// Active reports whether the subscription grants full disclosure at now.
// An expiry in the past revokes an otherwise active subscription.
func Active(sub model.Subscription, now time.Time) bool {
	if !sub.Active {
		return false
	}
	return sub.ExpiresAt.IsZero() || sub.ExpiresAt.After(now)
}

// ViewOf projects a record through the gate. With an inactive subscription
// only subscription state, classification, and stage survive; everything
// else is withheld.
func ViewOf(rec model.AssessmentRecord, history []model.HistoryEntry, now time.Time) View {
	v := View{
		SubjectID:          rec.SubjectID,
		Stage:              rec.Stage,
		Classification:     rec.Classification,
		SubscriptionActive: Active(rec.Subscription, now),
	}

	if !v.SubscriptionActive {
		v.RequiresSubscription = true
		return v
	}

	v.Plan = rec.Subscription.Plan
	if rec.Questionnaire != nil {
		p := rec.Questionnaire.InitialProbability
		v.InitialProbability = &p
	}
	overall := rec.OverallProbability
	v.OverallProbability = &overall
	features := rec.Features.Clone()
	v.Features = &features
	v.Interpretations = rec.Interpretations
	sections := report.Parse(rec.Report)
	v.Report = &sections
	v.History = history
	return v
}

// Activate returns the subscription state for the given plan starting at
// now. Pure state transition: it never re-runs aggregation, only changes
// what future views disclose.
func Activate(plan string, now time.Time) (model.Subscription, error) {
	var d time.Duration
	switch plan {
	case model.PlanMonthly:
		d = monthlyDuration
	case model.PlanYearly:
		d = yearlyDuration
	default:
		return model.Subscription{}, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}
	return model.Subscription{
		Active:    true,
		Plan:      plan,
		ExpiresAt: now.Add(d),
	}, nil
}
