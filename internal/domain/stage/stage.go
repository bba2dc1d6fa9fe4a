// Package stage implements the linear assessment stage state machine.
package stage

import (
	"fmt"

	"github.com/okian/sift/internal/domain/model"
)

// order is the fixed linear sequence a record advances through.
var order = []model.Stage{ //nolint:gochecknoglobals // fixed stage sequence
	model.StageQuestionnaire,
	model.StageVideo,
	model.StageHandwriting,
	model.StageComplete,
}

// Next returns the immediate successor of s. The second return is false
// when s is terminal or unknown.
func Next(s model.Stage) (model.Stage, bool) {
	for i, cur := range order {
		if cur == s && i+1 < len(order) {
			return order[i+1], true
		}
	}
	return "", false
}

// IsTerminal reports whether s is the terminal stage.
func IsTerminal(s model.Stage) bool {
	return s == model.StageComplete
}

// CanAdvance reports whether requested is the immediate successor of current.
func CanAdvance(current, requested model.Stage) bool {
	next, ok := Next(current)
	return ok && next == requested
}

// Require checks that a submission targets the record's current stage.
// Re-submitting the current stage is permitted (retry without advancing);
// anything else is a stage violation.
func Require(current, submitted model.Stage) error {
	if current == submitted {
		return nil
	}
	return fmt.Errorf("%w: record at %q, submission for %q", ErrStageViolation, current, submitted)
}

// Advance moves the record to the next stage. Mutation only; no side effects
// on external systems.
func Advance(rec *model.AssessmentRecord) error {
	next, ok := Next(rec.Stage)
	if !ok {
		return fmt.Errorf("%w: cannot advance past %q", ErrStageViolation, rec.Stage)
	}
	rec.Stage = next
	return nil
}
