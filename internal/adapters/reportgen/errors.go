package reportgen

import "errors"

// Sentinel kinds for report generation errors.
var (
	ErrReportGeneration = errors.New("report generation failed")
)
