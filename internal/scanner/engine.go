package scanner

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pageguard/pageguard/internal/cache"
	"github.com/pageguard/pageguard/internal/dom"
	"github.com/pageguard/pageguard/internal/heuristic"
	"github.com/pageguard/pageguard/internal/model"
	"github.com/pageguard/pageguard/internal/mutator"
)

// Scheduling defaults. Batches are small and paced so the document is
// never held for long stretches; the delays mirror the cooperative
// yielding a live page requires.
const (
	// DefaultBatchSize is the number of elements dispatched per batch.
	DefaultBatchSize = 5

	// DefaultPrimaryPace is the delay between primary discovery batches.
	DefaultPrimaryPace = 100 * time.Millisecond

	// DefaultSecondaryPace is the delay between secondary batches.
	DefaultSecondaryPace = 250 * time.Millisecond

	// DefaultSettleDelay is the wait before the secondary phase, giving
	// the page time to finish rendering.
	DefaultSettleDelay = 500 * time.Millisecond

	// DefaultDebounce is the mutation watcher's coalescing window.
	DefaultDebounce = 300 * time.Millisecond

	// staggerBase and staggerCap bound the per-element analysis delay:
	// 50ms plus 1ms per 100 characters, capped at 200ms. A burst of
	// simultaneous requests is naturally spread over time.
	staggerBase = 50 * time.Millisecond
	staggerCap  = 200 * time.Millisecond

	// prefilterLongLen is the length above which text is analyzed
	// remotely even without a suspicious token.
	prefilterLongLen = 100
)

// Remote is the moderation service boundary consumed by the engine.
// remote.Client implements it; tests substitute mocks.
type Remote interface {
	// Analyze classifies text.
	Analyze(ctx context.Context, text string) (model.Verdict, error)

	// Rephrase rewrites flagged text.
	Rephrase(ctx context.Context, text string, category model.Category) (model.RephraseResult, error)
}

// StatsRecorder receives counter increment events. The engine emits
// increments; it never owns the totals.
type StatsRecorder interface {
	Increment(name string) error
}

// Engine is the content-scanning pipeline for one document session.
type Engine struct {
	// mu serializes all access to the document and the settings
	// snapshot. Remote calls and pacing delays happen outside the lock.
	mu sync.Mutex

	doc      *goquery.Document
	settings model.Settings
	filter   *dom.Filter
	cache    *cache.Cache
	remote   Remote
	local    *heuristic.Classifier
	fallback *heuristic.Rephraser
	mut      *mutator.Mutator
	stats    StatsRecorder
	logger   *slog.Logger
	watcher  *Watcher

	// generation guards stale completions across resets.
	generation atomic.Int64

	// inflight tracks dispatched analyses for Wait.
	inflight sync.WaitGroup

	// Per-scan results, guarded by mu.
	analyzed  int
	harmful   int
	rephrased int
	findings  []model.Verdict

	// Pacing knobs.
	tokens        []string
	batchSize     int
	primaryPace   time.Duration
	secondaryPace time.Duration
	settleDelay   time.Duration
	debounce      time.Duration
	stagger       bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRemote sets the remote moderation service. When nil the engine
// runs offline on local heuristics only.
func WithRemote(r Remote) Option {
	return func(e *Engine) {
		e.remote = r
	}
}

// WithStats sets the statistics recorder.
func WithStats(s StatsRecorder) Option {
	return func(e *Engine) {
		e.stats = s
	}
}

// WithSettings sets the initial settings snapshot.
func WithSettings(s model.Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithClassifier replaces the local fallback classifier.
func WithClassifier(c *heuristic.Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.local = c
		}
	}
}

// WithRephraser replaces the local fallback rephraser.
func WithRephraser(r *heuristic.Rephraser) Option {
	return func(e *Engine) {
		if r != nil {
			e.fallback = r
		}
	}
}

// WithSuspiciousTokens replaces the scheduler's pre-filter token list.
func WithSuspiciousTokens(tokens []string) Option {
	return func(e *Engine) {
		if len(tokens) > 0 {
			e.tokens = tokens
		}
	}
}

// WithPacing overrides the batch pacing delays. Zero values are honored,
// which lets tests run without wall-clock waits.
func WithPacing(primary, secondary, settle time.Duration) Option {
	return func(e *Engine) {
		e.primaryPace = primary
		e.secondaryPace = secondary
		e.settleDelay = settle
	}
}

// WithDebounce overrides the mutation watcher's coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

// WithoutStagger disables the per-element analysis delay.
func WithoutStagger() Option {
	return func(e *Engine) {
		e.stagger = false
	}
}

// New creates an Engine for the given document.
func New(doc *goquery.Document, opts ...Option) *Engine {
	e := &Engine{
		doc:           doc,
		settings:      model.DefaultSettings(),
		filter:        dom.NewFilter(),
		cache:         cache.New(),
		local:         heuristic.NewClassifier(),
		fallback:      heuristic.NewRephraser(),
		logger:        slog.Default(),
		tokens:        defaultSuspiciousTokens,
		batchSize:     DefaultBatchSize,
		primaryPace:   DefaultPrimaryPace,
		secondaryPace: DefaultSecondaryPace,
		settleDelay:   DefaultSettleDelay,
		debounce:      DefaultDebounce,
		stagger:       true,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.mut = mutator.New(
		mutator.WithLogger(e.logger),
		mutator.WithRephraseFunc(e.rephraseWithFallback),
	)
	e.watcher = newWatcher(e)
	return e
}

// rephraseWithFallback tries the remote service and degrades to the
// local substitution table. The mutator receives only successful
// rewrites.
func (e *Engine) rephraseWithFallback(ctx context.Context, text string, category model.Category) model.RephraseResult {
	if e.remote != nil {
		res, err := e.remote.Rephrase(ctx, text, category)
		if err == nil {
			return res
		}
		e.logger.Warn("remote rephrase failed, using local fallback",
			"category", category.String(),
			"error", err,
		)
	}
	return e.fallback.Rephrase(text, category)
}

// Watcher returns the mutation watcher for this engine.
func (e *Engine) Watcher() *Watcher {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.watcher
}

// Settings returns the active settings snapshot.
func (e *Engine) Settings() model.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Cache returns the engine's result cache.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// Run performs the initial scan: primary discovery over landmark
// containers, then, if the primary phase found too few elements, a
// secondary sweep of generic elements after a settle delay. Batches are
// dispatched sequentially with pacing delays; the analyses themselves
// run asynchronously and do not block batch progression. Use Wait to
// drain them.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	enabled := e.settings.Enabled
	e.mu.Unlock()
	if !enabled {
		e.logger.Info("pipeline disabled, skipping scan")
		return nil
	}

	gen := e.generation.Load()

	primary := e.discoverPrimary()
	e.logger.Info("primary discovery complete", "candidates", len(primary))
	if err := e.drainBatches(ctx, gen, primary, e.primaryPace); err != nil {
		return err
	}

	if len(primary) >= secondaryTrigger {
		return nil
	}

	// Let the page settle before the broader sweep.
	if err := sleepCtx(ctx, e.settleDelay); err != nil {
		return err
	}

	secondary := e.discoverSecondary()
	e.logger.Info("secondary discovery complete", "candidates", len(secondary))
	return e.drainBatches(ctx, gen, secondary, e.secondaryPace)
}

// drainBatches dispatches requests in fixed-size batches with a pacing
// delay between batches. Dispatch is sequential and cooperative; each
// request's analysis continues asynchronously.
func (e *Engine) drainBatches(ctx context.Context, gen int64, reqs []*model.Request, pace time.Duration) error {
	for start := 0; start < len(reqs); start += e.batchSize {
		end := min(start+e.batchSize, len(reqs))
		for _, req := range reqs[start:end] {
			e.dispatch(ctx, gen, req)
		}
		if end < len(reqs) {
			if err := sleepCtx(ctx, pace); err != nil {
				return err
			}
		}
	}
	return nil
}

// dispatch runs one request's analysis asynchronously.
func (e *Engine) dispatch(ctx context.Context, gen int64, req *model.Request) {
	e.logger.Debug("analysis dispatched",
		"priority", req.Priority.String(),
		"length", len(req.Text),
	)
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		e.analyze(ctx, gen, req)
	}()
}

// Analyze runs the per-element analysis pipeline synchronously under the
// current generation, as a primary-priority request. The mutation
// watcher and tests use it directly; the initial scan goes through
// dispatch.
func (e *Engine) Analyze(ctx context.Context, sel *goquery.Selection) {
	if len(sel.Nodes) == 0 {
		return
	}
	e.analyze(ctx, e.generation.Load(), &model.Request{
		Node:     sel.Nodes[0],
		Priority: model.PriorityPrimary,
	})
}

// analyze is the per-request pipeline, short-circuiting at each step.
// The request's captured text served discovery; the live text is
// re-extracted under the lock, since the element may have changed since.
func (e *Engine) analyze(ctx context.Context, gen int64, req *model.Request) {
	sel := selectionFor(req.Node)

	// Steps 1-3 run under the document lock: eligibility re-check (a
	// second discovery path may have won the race), text extraction, and
	// the eager processed-mark. Marking before any asynchronous step is
	// the sole at-most-once guarantee per element per scan cycle.
	e.mu.Lock()
	if gen != e.generation.Load() || !e.settings.Enabled {
		e.mu.Unlock()
		return
	}
	if !e.filter.Eligible(sel) {
		e.mu.Unlock()
		return
	}
	text := dom.VisibleText(sel)
	dom.MarkProcessed(sel)
	e.mu.Unlock()

	key := dom.Normalize(text)

	// Cache hit: verdict delivery with zero remote cost.
	if v, ok := e.cache.Get(key); ok {
		e.deliver(ctx, gen, sel, v.WithSource(model.SourceCache))
		return
	}

	// Cheap local pre-filter: short text with no suspicious token is
	// treated as safe without a remote call. Accepts false negatives on
	// short borderline text in exchange for latency and cost.
	if !e.suspicious(text) && len(text) < prefilterLongLen {
		v := model.Verdict{
			Category:     model.CategorySafe,
			Confidence:   heuristic.UnmatchedConfidence,
			Explanation:  "No suspicious patterns detected",
			OriginalText: text,
			Source:       model.SourceHeuristic,
			AnalyzedAt:   time.Now(),
		}
		e.cache.Set(key, v)
		e.deliver(ctx, gen, sel, v)
		return
	}

	// Stagger the remote call by text length to smooth a burst of
	// simultaneous requests.
	if e.stagger {
		if err := sleepCtx(ctx, staggerDelay(len(text))); err != nil {
			return
		}
	}

	v, err := e.cache.Do(key, func() (model.Verdict, error) {
		return e.classify(ctx, text), nil
	})
	if err != nil {
		return
	}
	e.deliver(ctx, gen, sel, v)
}

// classify produces a verdict for text, remote first, heuristic
// fallback on any failure. Remote failure is never surfaced upward.
func (e *Engine) classify(ctx context.Context, text string) model.Verdict {
	if e.remote == nil {
		return e.local.Classify(text)
	}
	v, err := e.remote.Analyze(ctx, text)
	if err != nil {
		e.logger.Warn("remote analysis failed, using local heuristics",
			"error", err,
			"length", len(text),
		)
		return e.local.Classify(text)
	}
	return v
}

// deliver applies a verdict to its element. Completions re-check the
// generation and settings under the lock, so a verdict resolving after a
// reset or disable never resurrects content.
//
// The rewrite, being a remote call, is resolved before the lock is
// taken; one slow rephrase must not stall every other delivery. The
// action set is chosen from the settings snapshot the rewrite was
// resolved under, and only enablement and generation are re-checked
// after.
func (e *Engine) deliver(ctx context.Context, gen int64, sel *goquery.Selection, v model.Verdict) {
	e.mu.Lock()
	if gen != e.generation.Load() || !e.settings.Enabled {
		e.mu.Unlock()
		return
	}
	settings := e.settings
	e.mu.Unlock()

	var rewrite *model.RephraseResult
	if settings.AutoRephrase && v.Actionable(settings.Sensitivity) {
		r := e.rephraseWithFallback(ctx, v.OriginalText, v.Category)
		rewrite = &r
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation.Load() || !e.settings.Enabled {
		return
	}

	res := e.mut.Apply(ctx, sel, v, settings, rewrite)

	e.analyzed++
	e.increment(model.CounterAnalyzed)
	if v.Actionable(settings.Sensitivity) {
		e.harmful++
		e.increment(model.CounterHarmful)
		e.findings = append(e.findings, v)
	}
	if res.Rephrased {
		e.rephrased++
		e.increment(model.CounterRephrased)
	}
}

// increment emits one counter event. Recorder failures degrade to a log
// line; statistics are advisory.
func (e *Engine) increment(name string) {
	if e.stats == nil {
		return
	}
	if err := e.stats.Increment(name); err != nil {
		e.logger.Warn("failed to record statistic", "counter", name, "error", err)
	}
}

// ApplySettings replaces the settings snapshot wholesale. Disabling the
// pipeline disconnects the mutation watcher and reverses every
// modification; re-enabling installs a fresh watcher. In-flight
// completions observe the new snapshot and become no-ops when disabled.
func (e *Engine) ApplySettings(s model.Settings) {
	e.mu.Lock()
	wasEnabled := e.settings.Enabled
	e.settings = s
	w := e.watcher
	if !wasEnabled && s.Enabled {
		e.watcher = newWatcher(e)
	}
	e.mu.Unlock()

	if wasEnabled && !s.Enabled {
		// Disconnect outside the document lock: the watcher's flush
		// takes its own lock first and then the document lock.
		w.Disconnect()
		e.mu.Lock()
		e.mut.ReverseAll(e.doc)
		e.mu.Unlock()
	}

	e.logger.Info("settings applied",
		"enabled", s.Enabled,
		"auto_rephrase", s.AutoRephrase,
		"show_warnings", s.ShowWarnings,
		"sensitivity", s.Sensitivity.String(),
	)
}

// Reset performs the hard reset shared by navigation and teardown:
// generation bump, watcher disconnect, full reversal, cache clear, and
// marker strip. In-flight analyses from the old generation discard their
// verdicts on completion.
func (e *Engine) Reset() {
	e.generation.Add(1)

	e.mu.Lock()
	w := e.watcher
	e.mu.Unlock()
	w.Disconnect()

	e.mu.Lock()
	e.mut.ReverseAll(e.doc)
	e.cache.Clear()
	e.analyzed, e.harmful, e.rephrased = 0, 0, 0
	e.findings = nil
	e.watcher = newWatcher(e)
	e.mu.Unlock()

	e.logger.Info("pipeline reset", "generation", e.generation.Load())
}

// Navigate swaps in a new document and cold-restarts the pipeline after
// a settle delay. The old document is fully reversed first.
func (e *Engine) Navigate(ctx context.Context, doc *goquery.Document) error {
	e.Reset()

	e.mu.Lock()
	e.doc = doc
	e.mu.Unlock()

	if err := sleepCtx(ctx, e.settleDelay); err != nil {
		return err
	}
	return e.Run(ctx)
}

// Wait blocks until every dispatched analysis has completed.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Report summarizes the scan for the given source.
func (e *Engine) Report(source string) *model.PageReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := model.NewPageReport(source)
	r.Analyzed = e.analyzed
	r.Harmful = e.harmful
	r.Rephrased = e.rephrased
	for _, v := range e.findings {
		r.AddFinding(v)
	}
	if html, err := e.doc.Html(); err == nil {
		r.ComputeHash(html)
	}
	return r
}

// selectionFor wraps a request's node in a fresh selection so goquery
// operations can target it.
func selectionFor(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

// staggerDelay scales the per-element analysis delay by text length.
func staggerDelay(length int) time.Duration {
	d := staggerBase + time.Duration(length/100)*time.Millisecond
	return min(d, staggerCap)
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
