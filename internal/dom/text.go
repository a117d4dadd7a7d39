package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// VisibleText returns the element's rendered text with surrounding
// whitespace trimmed and internal whitespace runs collapsed to single
// spaces. This is the text the analysis pipeline classifies.
func VisibleText(sel *goquery.Selection) string {
	return CollapseWhitespace(sel.Text())
}

// CollapseWhitespace trims s and collapses whitespace runs to single
// spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize produces the result-cache key for a passage: whitespace
// collapsed, Unicode NFC normalized, and case folded. Two passages that
// differ only in case, composition, or spacing share one verdict.
func Normalize(s string) string {
	return cases.Fold().String(norm.NFC.String(CollapseWhitespace(s)))
}
