package model

import "time"

// Counter names accepted by the statistics store. The engine emits
// increments under these names; it never owns the totals.
const (
	// CounterAnalyzed counts elements that received a verdict from any
	// source (remote, heuristic, or cache).
	CounterAnalyzed = "analyzed"

	// CounterHarmful counts flagged verdicts the engine acted on.
	CounterHarmful = "harmful"

	// CounterRephrased counts rewrites applied to the document.
	CounterRephrased = "rephrased"
)

// Statistics holds the moderation counters owned by the statistics store.
type Statistics struct {
	// Analyzed is the number of elements that received a verdict.
	Analyzed int64 `json:"analyzed"`

	// Harmful is the number of flagged verdicts acted on.
	Harmful int64 `json:"harmful"`

	// Rephrased is the number of rewrites applied.
	Rephrased int64 `json:"rephrased"`

	// LastReset is the time the counters were last zeroed.
	LastReset time.Time `json:"last_reset"`
}
