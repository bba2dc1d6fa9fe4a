package disclosure

import "errors"

// Sentinel kinds for disclosure errors.
var (
	ErrUnknownPlan = errors.New("unknown subscription plan")
)
