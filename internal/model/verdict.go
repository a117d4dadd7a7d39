package model

import "time"

// VerdictSource identifies which stage of the analysis pipeline produced
// a verdict. It is recorded for reporting and never influences how the
// verdict is applied.
type VerdictSource string

const (
	// SourceRemote marks verdicts returned by the remote moderation service.
	SourceRemote VerdictSource = "remote"

	// SourceHeuristic marks verdicts produced by the local keyword
	// heuristics, either as a pre-filter short-circuit or as the fallback
	// when the remote service is unreachable. Heuristic verdicts carry
	// lower confidence than remote ones.
	SourceHeuristic VerdictSource = "heuristic"

	// SourceCache marks verdicts served from the result cache. The cached
	// verdict retains the confidence of its original computation.
	SourceCache VerdictSource = "cache"
)

// Verdict is the outcome of classifying a text passage.
// A Verdict is immutable once produced: cached entries are never updated
// in place, so a late completion can never overwrite an earlier result.
type Verdict struct {
	// Category is the moderation class assigned to the passage.
	Category Category `json:"category"`

	// Confidence is the classifier's certainty in [0,1].
	// Remote verdicts carry the service's model confidence; local heuristic
	// verdicts are fixed at 0.7 (pattern matched) or 0.6 (no match).
	Confidence float64 `json:"confidence"`

	// Explanation is a human-readable reason, surfaced as the warning
	// badge tooltip.
	Explanation string `json:"explanation"`

	// OriginalText is the normalized passage text the verdict was
	// computed for.
	OriginalText string `json:"original_text"`

	// Source records which pipeline stage produced the verdict.
	Source VerdictSource `json:"source"`

	// AnalyzedAt is the time the verdict was produced.
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Harmful reports whether the verdict flags the passage for intervention.
func (v Verdict) Harmful() bool {
	return v.Category.Flagged()
}

// Actionable reports whether the verdict is both flagged and confident
// enough to act on under the given sensitivity level.
func (v Verdict) Actionable(s Sensitivity) bool {
	return v.Harmful() && v.Confidence >= s.Threshold()
}

// WithSource returns a copy of the verdict tagged with a new source.
// Used when serving a cached verdict so reports can distinguish cache hits
// from fresh computations.
func (v Verdict) WithSource(src VerdictSource) Verdict {
	v.Source = src
	return v
}

// RephraseResult pairs a flagged passage with its rewritten form.
// It is produced only for flagged verdicts when auto-rephrase is enabled.
type RephraseResult struct {
	// Original is the passage text before rewriting.
	Original string `json:"original"`

	// Rephrased is the rewritten passage.
	Rephrased string `json:"rephrased"`

	// Source records whether the rewrite came from the remote service or
	// the local substitution fallback.
	Source VerdictSource `json:"source"`
}
