package extract

import "errors"

// Sentinel kinds for extraction errors.
var (
	ErrExtraction = errors.New("feature extraction failed")
)
