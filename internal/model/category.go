package model

import "strings"

// Category represents the moderation class assigned to a text passage.
// Categories are ordered by severity: when several heuristic groups match
// the same passage, the most severe category wins.
type Category int

const (
	// CategorySafe indicates the passage needs no intervention.
	CategorySafe Category = iota

	// CategoryInappropriate indicates material unsuitable for general
	// audiences (adult content, explicit references). Least severe of the
	// flagged categories.
	CategoryInappropriate

	// CategoryOffensive indicates insulting or abusive language directed
	// at people or groups.
	CategoryOffensive

	// CategoryHarmful indicates content that may cause or promote harm
	// (violence, weapons, self-harm). Most severe; checked first by the
	// local heuristics and treated as non-salvageable by word substitution.
	CategoryHarmful
)

// String returns the wire-format name of the category. These names match
// the remote moderation service contract and are stable.
func (c Category) String() string {
	switch c {
	case CategorySafe:
		return "safe"
	case CategoryInappropriate:
		return "inappropriate"
	case CategoryOffensive:
		return "offensive"
	case CategoryHarmful:
		return "harmful"
	default:
		return "unknown"
	}
}

// Flagged reports whether the category requires intervention.
func (c Category) Flagged() bool {
	return c != CategorySafe
}

// MoreSevere reports whether c outranks other. Harmful outranks offensive,
// which outranks inappropriate, which outranks safe.
func (c Category) MoreSevere(other Category) bool {
	return c > other
}

// ParseCategory converts a wire-format name into a Category.
// Unknown names map to CategorySafe so that a malformed remote response
// degrades to "no intervention" rather than a spurious mutation.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "harmful":
		return CategoryHarmful
	case "offensive":
		return CategoryOffensive
	case "inappropriate":
		return CategoryInappropriate
	default:
		return CategorySafe
	}
}

// Categories lists the flagged categories in severity order, most severe
// first. The local heuristic classifier checks pattern groups in this order.
func Categories() []Category {
	return []Category{CategoryHarmful, CategoryOffensive, CategoryInappropriate}
}
