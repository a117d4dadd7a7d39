package mutator

import (
	"context"
	"fmt"
	stdhtml "html"
	"log/slog"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/pageguard/pageguard/internal/dom"
	"github.com/pageguard/pageguard/internal/heuristic"
	"github.com/pageguard/pageguard/internal/model"
)

// Overlay CSS classes. All carry the dom.ClassPrefix namespace so the
// element filter recognizes them as the module's own markup.
const (
	// ClassBadge marks a warning badge inserted before flagged text.
	ClassBadge = "pageguard-badge"

	// ClassRewrite marks the wrapper around rephrased text. The wrapper
	// records the original text as restorable provenance data.
	ClassRewrite = "pageguard-rewrite"

	// ClassEdited marks the small indicator appended after a rewrite.
	ClassEdited = "pageguard-edited"

	// ClassFlagged is the lightweight class applied when neither warnings
	// nor rephrasing are enabled, for external styling or analytics.
	ClassFlagged = "pageguard-flagged"

	// AttrOriginal is the wrapper attribute holding the original text.
	AttrOriginal = "data-pageguard-original"
)

// RephraseFunc produces a rewritten form of flagged text. It is
// infallible: callers fold remote failure into the local fallback before
// handing the function to the mutator.
type RephraseFunc func(ctx context.Context, text string, category model.Category) model.RephraseResult

// Result reports which mutations Apply performed on an element.
type Result struct {
	// Badged is true when a warning badge was inserted.
	Badged bool

	// Rephrased is true when the element's text was rewritten.
	Rephrased bool

	// Flagged is true when only the flagged class was applied.
	Flagged bool
}

// Acted reports whether any mutation was performed.
func (r Result) Acted() bool {
	return r.Badged || r.Rephrased || r.Flagged
}

// Mutator applies verdicts to the document and keeps the provenance
// index that makes every mutation reversible in a single pass.
type Mutator struct {
	// mu guards the modification index. Document nodes themselves are
	// serialized by the engine.
	mu sync.Mutex

	// mods is the modification index, appended in application order.
	mods []model.Modification

	// rephrase produces rewritten text for flagged passages.
	rephrase RephraseFunc

	// sanitizer strips any markup from remote-provided rewrites before
	// they are injected into the document.
	sanitizer *bluemonday.Policy

	// logger is used for mutation-level debug logging.
	logger *slog.Logger
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithRephraseFunc sets the rewrite source. Defaults to the local
// heuristic rephraser.
func WithRephraseFunc(fn RephraseFunc) Option {
	return func(m *Mutator) {
		if fn != nil {
			m.rephrase = fn
		}
	}
}

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mutator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Mutator.
func New(opts ...Option) *Mutator {
	local := heuristic.NewRephraser()
	m := &Mutator{
		rephrase: func(_ context.Context, text string, category model.Category) model.RephraseResult {
			return local.Rephrase(text, category)
		},
		sanitizer: bluemonday.StrictPolicy(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Apply mutates an element according to its verdict and the active
// settings. Safe or below-threshold verdicts produce no mutation. The
// element must already carry the processed marker; Apply never touches
// eligibility.
//
// Mutation order matters: the rewrite replaces the element's children, so
// it runs before the badge is prepended.
//
// Callers that resolve the rewrite ahead of time pass it as rewrite; the
// engine does this so the remote rephrase call never runs under its
// document lock. A nil rewrite falls back to the mutator's own rephrase
// function.
func (m *Mutator) Apply(ctx context.Context, sel *goquery.Selection, verdict model.Verdict, settings model.Settings, rewrite *model.RephraseResult) Result {
	var res Result

	if !verdict.Actionable(settings.Sensitivity) {
		return res
	}
	if len(sel.Nodes) == 0 || !attached(sel.Nodes[0]) {
		// The node was removed from the document between discovery and
		// verdict delivery. Nothing to do.
		m.logger.Debug("skipping detached element", "category", verdict.Category.String())
		return res
	}

	if settings.AutoRephrase {
		res.Rephrased = m.applyRephrase(ctx, sel, verdict, rewrite)
	}
	if settings.ShowWarnings {
		res.Badged = m.applyBadge(sel, verdict)
	}
	if !settings.AutoRephrase && !settings.ShowWarnings {
		res.Flagged = m.applyFlag(sel, verdict)
	}

	return res
}

// applyRephrase replaces the element's text with a rewrite wrapped in a
// provenance marker plus an edited indicator. Rephrasing an element that
// already carries a rewrite is a no-op guard, not an error.
func (m *Mutator) applyRephrase(ctx context.Context, sel *goquery.Selection, verdict model.Verdict, rewrite *model.RephraseResult) bool {
	if sel.Find("span."+ClassRewrite).Length() > 0 || sel.Closest("span."+ClassRewrite).Length() > 0 {
		return false
	}

	original := sel.Text()
	if rewrite == nil {
		r := m.rephrase(ctx, verdict.OriginalText, verdict.Category)
		rewrite = &r
	}
	sanitized := m.sanitizer.Sanitize(rewrite.Rephrased)

	markup := fmt.Sprintf(
		`<span class="%s" %s="%s">%s</span><span class="%s" title="content modified by pageguard"></span>`,
		ClassRewrite, AttrOriginal, stdhtml.EscapeString(original), sanitized, ClassEdited,
	)
	sel.SetHtml(markup)

	m.record(model.Modification{
		Kind:         model.ModRephrase,
		Node:         sel.Nodes[0],
		Category:     verdict.Category,
		OriginalText: original,
	})

	m.logger.Debug("element rephrased",
		"category", verdict.Category.String(),
		"source", string(rewrite.Source),
		"length", len(original),
	)
	return true
}

// applyBadge prepends one warning badge. Idempotent: an element never
// carries two badges, even when two verdicts for overlapping regions
// resolve concurrently.
func (m *Mutator) applyBadge(sel *goquery.Selection, verdict model.Verdict) bool {
	if sel.Find("span."+ClassBadge).Length() > 0 {
		return false
	}

	markup := fmt.Sprintf(
		`<span class="%s %s--%s" title="%s"></span>`,
		ClassBadge, ClassBadge, verdict.Category.String(), stdhtml.EscapeString(verdict.Explanation),
	)
	sel.PrependHtml(markup)

	m.record(model.Modification{
		Kind:     model.ModBadge,
		Node:     sel.Nodes[0],
		Category: verdict.Category,
	})

	m.logger.Debug("warning badge inserted", "category", verdict.Category.String())
	return true
}

// applyFlag adds the lightweight flagged class without altering visible
// text.
func (m *Mutator) applyFlag(sel *goquery.Selection, verdict model.Verdict) bool {
	if sel.HasClass(ClassFlagged) {
		return false
	}
	sel.AddClass(ClassFlagged)

	m.record(model.Modification{
		Kind:     model.ModFlag,
		Node:     sel.Nodes[0],
		Category: verdict.Category,
	})
	return true
}

// record appends a provenance record to the modification index.
func (m *Mutator) record(mod model.Modification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mods = append(m.mods, mod)
}

// Modifications returns a copy of the modification index.
func (m *Mutator) Modifications() []model.Modification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Modification, len(m.mods))
	copy(out, m.mods)
	return out
}

// ReverseAll undoes every recorded mutation and strips all processed
// markers, restoring the document to its pre-scan visual and textual
// state. Safe to call when no modifications exist, idempotent, and
// order-independent across nodes.
func (m *Mutator) ReverseAll(doc *goquery.Document) {
	m.mu.Lock()
	mods := m.mods
	m.mods = nil
	m.mu.Unlock()

	// First pass: record-based restore. Detached nodes are still safe to
	// mutate; the operations simply have no effect on the document.
	for _, mod := range mods {
		sel := selectionFor(mod.Node)
		switch mod.Kind {
		case model.ModRephrase:
			sel.SetText(mod.OriginalText)
		case model.ModBadge:
			sel.Find("span." + ClassBadge).Remove()
		case model.ModFlag:
			sel.RemoveClass(ClassFlagged)
		}
	}

	// Second pass: document-wide sweep. Catches overlay markup whose
	// record-based restore was subsumed by another record (a badge inside
	// a later text restore) and makes repeated reversal a no-op.
	doc.Find("span." + ClassRewrite).Each(func(_ int, s *goquery.Selection) {
		original, _ := s.Attr(AttrOriginal)
		s.ReplaceWithHtml(stdhtml.EscapeString(original))
	})
	doc.Find("span." + ClassBadge).Remove()
	doc.Find("span." + ClassEdited).Remove()
	doc.Find("." + ClassFlagged).RemoveClass(ClassFlagged)
	dom.StripMarkers(doc)

	m.logger.Debug("modifications reversed", "count", len(mods))
}

// selectionFor wraps a stored node in a fresh selection so goquery
// operations can target it directly.
func selectionFor(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

// attached reports whether the node is still connected to a document
// root.
func attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.DocumentNode {
			return true
		}
	}
	return false
}
