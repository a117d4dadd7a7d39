package heuristic

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pageguard/pageguard/internal/model"
)

// Fixed heuristic confidences. A keyword match is reasonable evidence but
// far from a model judgment; no match is weaker evidence of safety.
const (
	// MatchedConfidence is the confidence of a verdict whose category
	// pattern matched.
	MatchedConfidence = 0.7

	// UnmatchedConfidence is the confidence of a safe verdict produced
	// because no pattern matched.
	UnmatchedConfidence = 0.6

	// minAnalyzableRunes is the length under which text is reported safe
	// outright rather than classified.
	minAnalyzableRunes = 5
)

// Default category term lists. Whole-word, case-insensitive. Harmful is
// checked before offensive before inappropriate: the most severe matching
// category wins.
var (
	defaultHarmfulTerms = []string{
		"kill", "murder", "bomb", "explosive", "weapon", "gun", "shoot",
		"stab", "poison", "attack", "assault", "suicide", "self-harm",
		"terror", "hostage", "massacre",
	}

	defaultOffensiveTerms = []string{
		"idiot", "stupid", "moron", "loser", "hate", "dumb", "pathetic",
		"worthless", "trash", "scum", "shut up", "disgusting",
	}

	defaultInappropriateTerms = []string{
		"porn", "nude", "explicit", "xxx", "gambling", "casino", "drugs",
		"narcotics", "escort", "adult content",
	}
)

// categoryExplanations templates the explanation per category.
var categoryExplanations = map[model.Category]string{
	model.CategoryHarmful:       "This content may cause harm or promote harmful activities.",
	model.CategoryOffensive:     "This content contains offensive language or sentiments.",
	model.CategoryInappropriate: "This content contains inappropriate material that may be unsuitable.",
	model.CategorySafe:          "This content appears to be safe.",
}

// patternGroup pairs a category with its compiled term patterns.
type patternGroup struct {
	category model.Category
	patterns []*regexp.Regexp
}

// Classifier is the local keyword classifier. Pattern groups are checked
// in severity order and the first match wins.
type Classifier struct {
	groups []patternGroup
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*classifierTables)

// classifierTables holds the term lists before compilation.
type classifierTables struct {
	harmful       []string
	offensive     []string
	inappropriate []string
}

// WithTerms replaces the term list for one category. An empty list keeps
// the defaults for that category.
func WithTerms(category model.Category, terms []string) ClassifierOption {
	return func(t *classifierTables) {
		if len(terms) == 0 {
			return
		}
		switch category {
		case model.CategoryHarmful:
			t.harmful = terms
		case model.CategoryOffensive:
			t.offensive = terms
		case model.CategoryInappropriate:
			t.inappropriate = terms
		}
	}
}

// NewClassifier creates a Classifier with the default term tables,
// applying any overrides. Patterns are compiled once at construction.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	tables := &classifierTables{
		harmful:       defaultHarmfulTerms,
		offensive:     defaultOffensiveTerms,
		inappropriate: defaultInappropriateTerms,
	}
	for _, opt := range opts {
		opt(tables)
	}

	return &Classifier{
		groups: []patternGroup{
			{category: model.CategoryHarmful, patterns: compileTerms(tables.harmful)},
			{category: model.CategoryOffensive, patterns: compileTerms(tables.offensive)},
			{category: model.CategoryInappropriate, patterns: compileTerms(tables.inappropriate)},
		},
	}
}

// compileTerms compiles whole-word case-insensitive patterns for a term
// list.
func compileTerms(terms []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(term)+`\b`))
	}
	return patterns
}

// Classify produces a verdict for text using the keyword tables.
// Texts under five runes are reported safe outright with full confidence;
// they carry too little signal to classify.
func (c *Classifier) Classify(text string) model.Verdict {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minAnalyzableRunes {
		return model.Verdict{
			Category:     model.CategorySafe,
			Confidence:   1.0,
			Explanation:  "Text is too short to analyze",
			OriginalText: text,
			Source:       model.SourceHeuristic,
			AnalyzedAt:   time.Now(),
		}
	}

	for _, group := range c.groups {
		for _, pattern := range group.patterns {
			if pattern.MatchString(trimmed) {
				return model.Verdict{
					Category:     group.category,
					Confidence:   MatchedConfidence,
					Explanation:  explain(group.category, MatchedConfidence),
					OriginalText: text,
					Source:       model.SourceHeuristic,
					AnalyzedAt:   time.Now(),
				}
			}
		}
	}

	return model.Verdict{
		Category:     model.CategorySafe,
		Confidence:   UnmatchedConfidence,
		Explanation:  explain(model.CategorySafe, UnmatchedConfidence),
		OriginalText: text,
		Source:       model.SourceHeuristic,
		AnalyzedAt:   time.Now(),
	}
}

// explain builds the templated explanation with a confidence level
// suffix, matching the remote service's response shaping.
func explain(category model.Category, confidence float64) string {
	return fmt.Sprintf("%s (%s confidence)", categoryExplanations[category], ConfidenceLevel(confidence))
}

// ConfidenceLevel names a confidence value: high above 0.8, moderate
// above 0.6, low otherwise.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence > 0.8:
		return "high"
	case confidence > 0.6:
		return "moderate"
	default:
		return "low"
	}
}
