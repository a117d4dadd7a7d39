package scanner

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pageguard/pageguard/internal/dom"
	"github.com/pageguard/pageguard/internal/model"
)

// Discovery thresholds.
const (
	// primaryMinTextLen is the trimmed length a primary candidate must
	// exceed.
	primaryMinTextLen = 15

	// secondaryTrigger is the primary-candidate count below which the
	// secondary phase runs.
	secondaryTrigger = 10

	// secondaryMinTextLen is the minimum trimmed length for secondary
	// candidates.
	secondaryMinTextLen = 30

	// secondaryLongTextLen is the length above which a secondary
	// candidate qualifies without a suspicious token.
	secondaryLongTextLen = 100

	// secondaryMax caps the secondary set to bound cost.
	secondaryMax = 20
)

// primarySelectors locates main-content landmark containers, tried in
// order. The full body is the fallback when none match.
var primarySelectors = []string{
	"main",
	"article",
	`[role="main"]`,
	"#content",
	"#main",
	".content",
	".main-content",
	".post",
}

// primaryCandidateSelector matches the heading, paragraph, and list-like
// elements collected inside landmark containers.
const primaryCandidateSelector = "h1, h2, h3, h4, h5, h6, p, li, blockquote"

// discoverPrimary enumerates candidates inside landmark containers as
// primary-priority analysis requests.
func (e *Engine) discoverPrimary() []*model.Request {
	e.mu.Lock()
	defer e.mu.Unlock()

	var containers []*goquery.Selection
	for _, selector := range primarySelectors {
		if found := e.doc.Find(selector); found.Length() > 0 {
			containers = append(containers, found)
		}
	}
	if len(containers) == 0 {
		containers = append(containers, e.doc.Find("body"))
	}

	seen := make(map[*html.Node]bool)
	var out []*model.Request
	for _, container := range containers {
		container.Find(primaryCandidateSelector).Each(func(_ int, sel *goquery.Selection) {
			n := sel.Nodes[0]
			if seen[n] {
				return
			}
			text := dom.VisibleText(sel)
			if len(text) <= primaryMinTextLen {
				return
			}
			if !e.filter.Eligible(sel) {
				return
			}
			seen[n] = true
			out = append(out, &model.Request{
				Node:     n,
				Text:     text,
				Priority: model.PriorityPrimary,
			})
		})
	}
	return out
}

// discoverSecondary sweeps generic container and inline elements. Only
// elements with a suspicious token or substantial length qualify, and
// the set is capped.
func (e *Engine) discoverSecondary() []*model.Request {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []*model.Request
	e.doc.Find("div, span, a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(out) >= secondaryMax {
			return false
		}
		if text, ok := e.secondaryEligible(sel); ok {
			out = append(out, &model.Request{
				Node:     sel.Nodes[0],
				Text:     text,
				Priority: model.PrioritySecondary,
			})
		}
		return true
	})
	return out
}

// secondaryEligible inspects one generic element and returns its visible
// text when it qualifies. Inspection failures exclude the element and
// the sweep continues; nothing here may halt the scan.
func (e *Engine) secondaryEligible(sel *goquery.Selection) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("candidate inspection failed, excluding element", "reason", r)
			ok = false
		}
	}()

	text = dom.VisibleText(sel)
	if len(text) < secondaryMinTextLen {
		return text, false
	}
	if !e.suspicious(text) && len(text) <= secondaryLongTextLen {
		return text, false
	}
	return text, e.filter.Eligible(sel)
}
