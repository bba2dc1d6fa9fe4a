// Package report defines the structured narrative report contract and a
// defensive parser for generator output.
package report

import "strings"

// Heading names the generator is expected to emit, one per section, each on
// its own line prefixed with "## ".
const (
	HeadingOverall         = "Overall Analysis"
	HeadingDetailed        = "Detailed Analysis"
	HeadingRecommendations = "Recommendations"
	HeadingNextSteps       = "Next Steps"

	headingPrefix = "## "
)

// Sections is the structured decomposition of one narrative report. When the
// generator's output carries no recognizable headings the whole text lands in
// Summary and the named sections stay empty; an empty input yields the zero
// value, which is valid.
type Sections struct {
	Summary          string `json:"summary,omitempty"`
	OverallAnalysis  string `json:"overall_analysis,omitempty"`
	DetailedAnalysis string `json:"detailed_analysis,omitempty"`
	Recommendations  string `json:"recommendations,omitempty"`
	NextSteps        string `json:"next_steps,omitempty"`
}

// Empty reports whether no section carries any text.
func (s Sections) Empty() bool {
	return s == Sections{}
}

// Parse splits generator output into named sections by the heading
// convention. Text before the first heading, or all text when no heading is
// present, becomes the Summary section. Unrecognized headings fold their body
// into DetailedAnalysis rather than being dropped.
func Parse(text string) Sections {
	var out Sections

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return out
	}

	current := ""
	var buf strings.Builder
	flush := func() {
		body := strings.TrimSpace(buf.String())
		buf.Reset()
		if body == "" {
			return
		}
		switch current {
		case "":
			out.Summary = join(out.Summary, body)
		case HeadingOverall:
			out.OverallAnalysis = join(out.OverallAnalysis, body)
		case HeadingDetailed:
			out.DetailedAnalysis = join(out.DetailedAnalysis, body)
		case HeadingRecommendations:
			out.Recommendations = join(out.Recommendations, body)
		case HeadingNextSteps:
			out.NextSteps = join(out.NextSteps, body)
		default:
			out.DetailedAnalysis = join(out.DetailedAnalysis, body)
		}
	}

	for _, line := range strings.Split(trimmed, "\n") {
		if strings.HasPrefix(line, headingPrefix) {
			flush()
			current = canonicalHeading(strings.TrimSpace(strings.TrimPrefix(line, headingPrefix)))
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()

	return out
}

// canonicalHeading matches a heading name case-insensitively against the
// documented set, returning the canonical form or the raw name when unknown.
func canonicalHeading(name string) string {
	for _, known := range []string{HeadingOverall, HeadingDetailed, HeadingRecommendations, HeadingNextSteps} {
		if strings.EqualFold(name, known) {
			return known
		}
	}
	return name
}

func join(existing, body string) string {
	if existing == "" {
		return body
	}
	return existing + "\n\n" + body
}
