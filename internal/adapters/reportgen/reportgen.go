// Package reportgen defines the narrative report generator contract and an
// in-memory template implementation standing in for the external service.
package reportgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/sift/internal/domain/model"
	"github.com/okian/sift/internal/domain/report"
)

// Request carries the consolidated signals the generator narrates.
type Request struct {
	InitialProbability float64
	OverallProbability float64
	Classification     bool
	Features           model.FeatureSet
	Interpretations    map[model.Modality][]string
}

// Generator turns aggregated features into narrative text. The text is
// expected to follow the report heading convention; consumers parse it
// defensively either way.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// InMemoryGenerator renders a deterministic template report.
type InMemoryGenerator struct{}

// NewInMemoryGenerator creates a template-based report generator.
func NewInMemoryGenerator() *InMemoryGenerator {
	return &InMemoryGenerator{}
}

// Generate renders the narrative, honoring ctx for cancellation.
func (g *InMemoryGenerator) Generate(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrReportGeneration, ctx.Err())
	default:
	}

	var b strings.Builder

	b.WriteString("## " + report.HeadingOverall + "\n")
	fmt.Fprintf(&b, "The screening produced an overall probability of %.2f. ", req.OverallProbability)
	if req.Classification {
		b.WriteString("The combined signals sit above the screening threshold.\n")
	} else {
		b.WriteString("The combined signals sit below the screening threshold.\n")
	}

	b.WriteString("## " + report.HeadingDetailed + "\n")
	fmt.Fprintf(&b, "Questionnaire: initial probability %.2f.\n", req.InitialProbability)
	if req.Features.Eye != nil {
		fmt.Fprintf(&b, "Eye tracking: %d fixation issues, %d regressions, %d irregular movements.\n",
			req.Features.Eye.FixationIssues, req.Features.Eye.Regressions, req.Features.Eye.IrregularMovements)
	}
	if req.Features.Speech != nil {
		fmt.Fprintf(&b, "Speech: word error rate %.2f against the reference passage.\n",
			req.Features.Speech.WordErrorRate)
	}
	if req.Features.Handwriting != nil {
		fmt.Fprintf(&b, "Handwriting: probability %.2f at confidence %.2f.\n",
			req.Features.Handwriting.Probability, req.Features.Handwriting.Confidence)
	}
	for modality, notes := range req.Interpretations {
		for _, note := range notes {
			fmt.Fprintf(&b, "%s: %s.\n", modality, note)
		}
	}

	b.WriteString("## " + report.HeadingRecommendations + "\n")
	if req.Classification {
		b.WriteString("Seek a formal evaluation with a qualified specialist.\n")
	} else {
		b.WriteString("No immediate action indicated; monitor reading development.\n")
	}

	b.WriteString("## " + report.HeadingNextSteps + "\n")
	b.WriteString("Results can be re-checked by running a fresh assessment at any time.\n")

	return b.String(), nil
}
