package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Eligibility thresholds.
const (
	// MinTextLength is the absolute minimum trimmed text length for an
	// element to be worth analyzing.
	MinTextLength = 10

	// MinUITextLength is the higher threshold applied to short strings
	// that look like interface chrome (navigation labels, footers).
	MinUITextLength = 20
)

// excludedTags lists elements that never carry analyzable prose.
var excludedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"canvas":   true,
	"input":    true,
	"textarea": true,
	"iframe":   true,
}

// landmarkTags are page-chrome containers whose short strings are almost
// always UI labels rather than content.
var landmarkTags = map[string]bool{
	"nav":    true,
	"header": true,
	"footer": true,
}

// uiTextPatterns lists common interface strings. A short passage equal to
// or containing only one of these is chrome, not content.
var uiTextPatterns = []string{
	"menu",
	"login",
	"log in",
	"sign up",
	"sign in",
	"logout",
	"search",
	"home",
	"about",
	"contact",
	"copyright",
	"all rights reserved",
	"privacy policy",
	"terms of service",
	"read more",
	"skip to content",
}

// Filter is the element eligibility predicate. It is a pure predicate:
// accepting an element has no side effect, the caller records the
// processed marker on acceptance.
type Filter struct {
	// minLength is the absolute minimum trimmed text length.
	minLength int

	// minUILength is the threshold for UI-looking short strings.
	minUILength int
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// WithMinLength overrides the minimum trimmed text length.
func WithMinLength(n int) FilterOption {
	return func(f *Filter) {
		if n > 0 {
			f.minLength = n
		}
	}
}

// NewFilter creates a Filter with the default thresholds.
func NewFilter(opts ...FilterOption) *Filter {
	f := &Filter{
		minLength:   MinTextLength,
		minUILength: MinUITextLength,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Eligible reports whether the element is worth analyzing.
//
// An element is excluded when it:
//   - is not an element node, or is a non-text-bearing tag
//   - carries the overlay's own classes, attributes, or processed marker
//   - has an ancestor or descendant carrying overlay markup (prevents
//     double-wrapping and prevents scanning the overlay's own text)
//   - falls below the minimum trimmed text length, or is a short string
//     that looks like interface chrome
func (f *Filter) Eligible(sel *goquery.Selection) bool {
	if sel == nil || len(sel.Nodes) == 0 {
		return false
	}
	n := sel.Nodes[0]
	if n.Type != html.ElementNode {
		return false
	}
	if excludedTags[n.Data] {
		return false
	}
	if HasOverlayMarkup(n) || IsProcessed(sel) {
		return false
	}
	if hasOverlayAncestor(n) || hasOverlayDescendant(n) {
		return false
	}

	text := VisibleText(sel)
	return f.eligibleText(text, inLandmark(n))
}

// eligibleText applies the length thresholds and the short-UI-text rule.
func (f *Filter) eligibleText(text string, landmark bool) bool {
	if len(text) < f.minLength {
		return false
	}
	if len(text) < f.minUILength && (landmark || looksLikeUIText(text)) {
		return false
	}
	return true
}

// looksLikeUIText reports whether a short string matches the common
// interface text patterns.
func looksLikeUIText(text string) bool {
	lower := strings.ToLower(text)
	for _, pattern := range uiTextPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// inLandmark reports whether the node sits inside a navigation, header,
// or footer landmark.
func inLandmark(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if landmarkTags[p.Data] {
			return true
		}
		if role := getAttr(p, "role"); role == "navigation" || role == "banner" || role == "contentinfo" {
			return true
		}
	}
	return false
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// candidateSelector matches the text-bearing elements both discovery
// phases and the mutation watcher consider.
const candidateSelector = "h1, h2, h3, h4, h5, h6, p, li, blockquote, div, span, a"

// CandidatesIn expands an inserted subtree root to its eligible
// text-bearing elements, including the root itself. The mutation watcher
// uses this to feed dynamically inserted content through the same
// per-element analysis path as the initial scan.
func CandidatesIn(root *goquery.Selection, f *Filter) []*goquery.Selection {
	var out []*goquery.Selection
	seen := make(map[*html.Node]bool)

	add := func(sel *goquery.Selection) {
		if len(sel.Nodes) == 0 || seen[sel.Nodes[0]] {
			return
		}
		if f.Eligible(sel) {
			seen[sel.Nodes[0]] = true
			out = append(out, sel)
		}
	}

	add(root)
	root.Find(candidateSelector).Each(func(_ int, sel *goquery.Selection) {
		add(sel)
	})
	return out
}
