package types

// Analysis stages reported through ProgressEvent.
const (
	StageSearching = "searching"
	StageFetching  = "fetching"
	StageScoring   = "scoring"
	StageSaving    = "saving"
	StageDone      = "done"
	StageFailed    = "failed"
)

// ProgressEvent is a point-in-time progress update emitted by the
// analyzer. Events are sent on a buffered channel and dropped when the
// consumer lags, so stages must not depend on delivery.
type ProgressEvent struct {
	// Stage is one of the Stage* constants.
	Stage string `json:"stage"`

	// Percent is overall completion in [0,100].
	Percent int `json:"percent"`

	// Message is a short human-readable status line.
	Message string `json:"message"`

	// Completed and Total track per-stage unit counts when meaningful,
	// e.g. pages fetched out of pages requested.
	Completed int `json:"completed,omitempty"`
	Total     int `json:"total,omitempty"`
}
