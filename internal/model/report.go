package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// maxExcerptLen bounds how much of a flagged passage a report carries.
// Reports may be shared; full flagged text stays out of them.
const maxExcerptLen = 80

// Finding summarizes one flagged passage for reporting.
type Finding struct {
	// Category is the verdict category.
	Category Category `json:"category"`

	// Confidence is the verdict confidence.
	Confidence float64 `json:"confidence"`

	// Explanation is the verdict's human-readable reason.
	Explanation string `json:"explanation"`

	// Excerpt is a truncated sample of the flagged text.
	Excerpt string `json:"excerpt"`

	// Source records which pipeline stage produced the verdict.
	Source VerdictSource `json:"source"`
}

// PageReport is the summarized result of moderating one document.
// It is rendered by the report writers and persisted as scan history.
type PageReport struct {
	// SessionID uniquely identifies this scan.
	SessionID string `json:"session_id"`

	// Source is the file path or URL the document was loaded from.
	Source string `json:"source"`

	// ScannedAt is when the scan started.
	ScannedAt time.Time `json:"scanned_at"`

	// Analyzed is the number of elements that received a verdict.
	Analyzed int `json:"analyzed"`

	// Harmful is the number of flagged verdicts acted on.
	Harmful int `json:"harmful"`

	// Rephrased is the number of rewrites applied.
	Rephrased int `json:"rephrased"`

	// Findings lists the flagged passages in discovery order.
	Findings []Finding `json:"findings"`

	// ContentHash is the SHA-256 of the document as scanned, so repeat
	// scans of identical content can be recognized in history.
	ContentHash string `json:"content_hash"`

	// Error records a scan-level failure, if any. Element-level failures
	// degrade to heuristic verdicts and never appear here.
	Error string `json:"error,omitempty"`
}

// NewPageReport creates an empty report for the given source with a fresh
// session ID.
func NewPageReport(source string) *PageReport {
	return &PageReport{
		SessionID: uuid.NewString(),
		Source:    source,
		ScannedAt: time.Now(),
		Findings:  make([]Finding, 0),
	}
}

// AddFinding appends a finding built from a verdict, truncating the
// excerpt.
func (r *PageReport) AddFinding(v Verdict) {
	excerpt := v.OriginalText
	if len(excerpt) > maxExcerptLen {
		excerpt = excerpt[:maxExcerptLen] + "..."
	}
	r.Findings = append(r.Findings, Finding{
		Category:    v.Category,
		Confidence:  v.Confidence,
		Explanation: v.Explanation,
		Excerpt:     excerpt,
		Source:      v.Source,
	})
}

// ComputeHash records the SHA-256 of the document content.
func (r *PageReport) ComputeHash(content string) {
	sum := sha256.Sum256([]byte(content))
	r.ContentHash = hex.EncodeToString(sum[:])
}

// CategoryCounts returns the number of findings per category name.
func (r *PageReport) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Findings {
		counts[f.Category.String()]++
	}
	return counts
}

// HasFindings reports whether any passage was flagged.
func (r *PageReport) HasFindings() bool {
	return len(r.Findings) > 0
}
