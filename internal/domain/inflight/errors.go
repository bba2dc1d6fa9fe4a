package inflight

import "errors"

// Sentinel kinds for in-flight errors.
var (
	ErrSubjectBusy = errors.New("subject operation already in flight")
)
