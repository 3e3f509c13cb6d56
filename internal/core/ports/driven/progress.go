package driven

import "time"

// Stage identifies one pipeline stage for progress accounting.
type Stage string

// Pipeline stages with independent counters.
const (
	StagePullRequests Stage = "pull_requests"
	StageComments     Stage = "comments"
	StageDocuments    Stage = "documents"
)

// ProgressReporter receives monotonically increasing counters for each
// pipeline stage. Implementations must be safe for use from the
// fan-out goroutines within a page.
type ProgressReporter interface {
	// SetTotal records the expected total for a stage, when known.
	SetTotal(stage Stage, total int)

	// Add advances a stage counter by delta.
	Add(stage Stage, delta int)

	// LastUpdate returns the time of the most recent counter change,
	// for ETA-style reporting by the caller.
	LastUpdate() time.Time
}
