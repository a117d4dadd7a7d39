package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Overlay namespace. Every class and attribute this module attaches to a
// page carries one of these prefixes so the filter can recognize the
// module's own markup.
const (
	// ClassPrefix prefixes every overlay CSS class.
	ClassPrefix = "pageguard-"

	// AttrPrefix prefixes every overlay data attribute.
	AttrPrefix = "data-pageguard-"

	// AttrProcessed is the processed marker: the idempotency flag that
	// guarantees an element is analyzed at most once per scan cycle.
	AttrProcessed = "data-pageguard-processed"
)

// MarkProcessed attaches the processed marker to the selection's element.
// An element carries at most one marker; marking twice is a no-op.
func MarkProcessed(sel *goquery.Selection) {
	sel.SetAttr(AttrProcessed, "true")
}

// IsProcessed reports whether the element carries the processed marker.
func IsProcessed(sel *goquery.Selection) bool {
	_, ok := sel.Attr(AttrProcessed)
	return ok
}

// StripMarkers removes every processed marker from the document,
// restoring all elements to their pre-scan attribute state.
func StripMarkers(doc *goquery.Document) {
	doc.Find("[" + AttrProcessed + "]").RemoveAttr(AttrProcessed)
}

// HasOverlayMarkup reports whether the node itself carries overlay
// classes or attributes.
func HasOverlayMarkup(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if strings.HasPrefix(attr.Key, AttrPrefix) {
			return true
		}
		if attr.Key == "class" && strings.Contains(attr.Val, ClassPrefix) {
			return true
		}
	}
	return false
}

// hasOverlayAncestor reports whether any ancestor of n carries overlay
// markup. Analyzing text inside the overlay's own wrappers would corrupt
// the provenance records.
func hasOverlayAncestor(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if HasOverlayMarkup(p) {
			return true
		}
	}
	return false
}

// hasOverlayDescendant reports whether any descendant of n carries
// overlay markup. Re-wrapping an element whose children were already
// rewritten would double-wrap the rewrite.
func hasOverlayDescendant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if HasOverlayMarkup(c) || hasOverlayDescendant(c) {
			return true
		}
	}
	return false
}
