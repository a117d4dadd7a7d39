package model

import "golang.org/x/net/html"

// ModKind identifies the type of a reversible DOM mutation.
type ModKind int

const (
	// ModBadge is a warning badge inserted before the flagged text.
	ModBadge ModKind = iota

	// ModRephrase is a text replacement wrapped in a provenance marker.
	ModRephrase

	// ModFlag is a lightweight class added for external styling without
	// altering visible text.
	ModFlag
)

// String returns a short name for the modification kind.
func (k ModKind) String() string {
	switch k {
	case ModBadge:
		return "badge"
	case ModRephrase:
		return "rephrase"
	case ModFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// Modification records one DOM mutation with enough original-state data to
// reverse it exactly. The mutator appends a Modification for every change
// it makes; reversal is a single pass over the collected records rather
// than a document-wide query.
type Modification struct {
	// Kind is the type of mutation performed.
	Kind ModKind

	// Node is the element the mutation targeted. The node may have been
	// detached from the document since; reversal must tolerate that.
	Node *html.Node

	// Category is the verdict category that triggered the mutation.
	Category Category

	// OriginalText is the element's visible text before a rephrase.
	// Only set for ModRephrase records; restoring it undoes the rewrite.
	OriginalText string
}
