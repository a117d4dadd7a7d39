package heuristic

import (
	"regexp"
	"strings"

	"github.com/pageguard/pageguard/internal/model"
)

// SafetyNotice is the fixed sentence that replaces harmful passages.
// Harmful content is treated as non-salvageable by word substitution, so
// the whole passage is discarded rather than patched term by term.
const SafetyNotice = "This content has been removed because it may cause harm. Please seek appropriate resources if you need support."

// defaultReplacements is the whole-word, case-insensitive substitution
// table for the offensive and inappropriate categories.
var defaultReplacements = map[string]string{
	"idiot":      "person",
	"stupid":     "unwise",
	"moron":      "person",
	"loser":      "person",
	"hate":       "dislike",
	"dumb":       "unwise",
	"pathetic":   "unfortunate",
	"worthless":  "undervalued",
	"trash":      "unwanted",
	"scum":       "person",
	"disgusting": "unpleasant",
	"porn":       "[removed]",
	"nude":       "[removed]",
	"explicit":   "[removed]",
	"xxx":        "[removed]",
	"gambling":   "gaming",
	"casino":     "venue",
	"drugs":      "substances",
	"narcotics":  "substances",
	"escort":     "[removed]",
}

// categoryNotes is appended when substitution changes nothing, so the
// reader still sees that the passage was flagged.
var categoryNotes = map[model.Category]string{
	model.CategoryHarmful:       "[Note: This content has been identified as potentially harmful and should be approached with caution]",
	model.CategoryOffensive:     "[Note: This content has been identified as containing offensive language]",
	model.CategoryInappropriate: "[Note: This content has been identified as containing inappropriate material]",
}

// substitution pairs a compiled term pattern with its replacement.
type substitution struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rephraser is the local rewrite fallback used when the remote rephrase
// call fails.
type Rephraser struct {
	subs []substitution
}

// RephraserOption configures a Rephraser.
type RephraserOption func(*Rephraser)

// WithReplacements adds or overrides substitution table entries.
func WithReplacements(table map[string]string) RephraserOption {
	return func(r *Rephraser) {
		for term, replacement := range table {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}
			r.subs = append(r.subs, substitution{
				pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
				replacement: replacement,
			})
		}
	}
}

// NewRephraser creates a Rephraser with the default substitution table,
// applying any overrides.
func NewRephraser(opts ...RephraserOption) *Rephraser {
	r := &Rephraser{}
	WithReplacements(defaultReplacements)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rephrase rewrites a flagged passage.
//
// Harmful passages are replaced wholesale by the safety notice. Other
// flagged categories get whole-word substitution; when substitution
// changes nothing, a category note is appended so the flag remains
// visible. Safe passages are returned unchanged.
func (r *Rephraser) Rephrase(text string, category model.Category) model.RephraseResult {
	result := model.RephraseResult{
		Original: text,
		Source:   model.SourceHeuristic,
	}

	switch category {
	case model.CategorySafe:
		result.Rephrased = text
	case model.CategoryHarmful:
		result.Rephrased = SafetyNotice
	default:
		rephrased := text
		for _, sub := range r.subs {
			rephrased = sub.pattern.ReplaceAllString(rephrased, sub.replacement)
		}
		if rephrased == text || strings.TrimSpace(rephrased) == "" {
			rephrased = text + " " + categoryNotes[category]
		}
		result.Rephrased = rephrased
	}

	return result
}
