package stage

import "errors"

// Sentinel kinds for stage errors.
var (
	ErrStageViolation = errors.New("stage violation")
)
