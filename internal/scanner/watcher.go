package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pageguard/pageguard/internal/dom"
	"github.com/pageguard/pageguard/internal/model"
)

// Watcher funnels dynamically inserted subtrees into the analysis
// pipeline. Insertions are buffered into a pending set and coalesced by
// a single debounce timer: repeated insertions within the window produce
// one processing pass after the burst settles. Only structural
// insertions are watched; character-data edits are out of scope to bound
// volume.
type Watcher struct {
	engine *Engine

	// mu guards the pending set and timer. It is never held while
	// acquiring the engine's document lock.
	mu           sync.Mutex
	pending      map[*html.Node]*goquery.Selection
	timer        *time.Timer
	debounce     time.Duration
	disconnected bool
}

// newWatcher creates a connected Watcher for the engine.
func newWatcher(e *Engine) *Watcher {
	return &Watcher{
		engine:   e,
		pending:  make(map[*html.Node]*goquery.Selection),
		debounce: e.debounce,
	}
}

// NotifyInserted buffers newly inserted element roots and (re)arms the
// debounce timer. Duplicate roots are coalesced by node identity. The
// guarantee is at least one processing pass after the last insertion
// within the debounce window, not one pass per insertion.
func (w *Watcher) NotifyInserted(sel *goquery.Selection) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.disconnected {
		return
	}

	sel.Each(func(_ int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		if _, exists := w.pending[s.Nodes[0]]; !exists {
			w.pending[s.Nodes[0]] = s
		}
	})

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// flush drains the pending set: each inserted root is expanded to its
// eligible text-bearing descendants and fed through the same per-element
// analysis path as the initial scan, bypassing the batch phases.
func (w *Watcher) flush() {
	w.mu.Lock()
	if w.disconnected {
		w.mu.Unlock()
		return
	}
	pending := w.pending
	w.pending = make(map[*html.Node]*goquery.Selection)
	w.timer = nil
	w.mu.Unlock()

	e := w.engine
	gen := e.generation.Load()

	// Expansion reads the document, so it runs under the document lock.
	// Inserted content is visible to the user already, so its requests
	// carry primary priority.
	e.mu.Lock()
	seen := make(map[*html.Node]bool)
	var candidates []*model.Request
	for _, root := range pending {
		for _, sel := range dom.CandidatesIn(root, e.filter) {
			if seen[sel.Nodes[0]] {
				continue
			}
			seen[sel.Nodes[0]] = true
			candidates = append(candidates, &model.Request{
				Node:     sel.Nodes[0],
				Text:     dom.VisibleText(sel),
				Priority: model.PriorityPrimary,
			})
		}
	}
	e.mu.Unlock()

	e.logger.Debug("mutation pass",
		"inserted_roots", len(pending),
		"candidates", len(candidates),
	)

	for _, req := range candidates {
		e.dispatch(context.Background(), gen, req)
	}
}

// Disconnect stops the watcher: the pending set is dropped and no timer
// is left armed. Idempotent; a disconnected watcher ignores further
// notifications.
func (w *Watcher) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.disconnected = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[*html.Node]*goquery.Selection)
}
