package model

import "golang.org/x/net/html"

// Priority orders discovery phases. Primary candidates come from landmark
// containers and are analyzed before the secondary sweep of generic
// elements.
type Priority int

const (
	// PriorityPrimary marks elements found inside main-content landmarks.
	PriorityPrimary Priority = iota

	// PrioritySecondary marks elements from the generic fallback sweep.
	PrioritySecondary
)

// String returns a short name for the priority.
func (p Priority) String() string {
	if p == PrioritySecondary {
		return "secondary"
	}
	return "primary"
}

// Request is one unit of analysis work. The scheduler creates requests
// during discovery, the analyzer consumes them, and they are discarded
// after verdict delivery.
type Request struct {
	// Node is the candidate element.
	Node *html.Node

	// Text is the element's visible text as captured at discovery time.
	// The analyzer re-reads the live text under the document lock before
	// classifying; the captured copy serves thresholds and dispatch
	// logging. May be empty for directly requested analyses.
	Text string

	// Priority records which discovery phase produced the request.
	Priority Priority
}
