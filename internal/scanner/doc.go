// Package scanner implements the incremental content-scanning engine:
// candidate discovery, batching and pacing, per-element analysis, and the
// mutation watcher for dynamically inserted content.
//
// The engine is the explicit context object for one document session. It
// holds the document, the active settings snapshot, the result cache, the
// remote client, the heuristic fallback, the mutator, and a statistics
// recorder. A mutex serializes every document access, which stands in for
// the single UI thread of a live page: analyses run concurrently, but
// reads and mutations of the node tree interleave one at a time.
//
// A generation counter guards stale completions. Navigation and reset
// bump the generation; an analysis that resolves after its generation was
// superseded discards its verdict instead of mutating a reset page.
//
// # Analysis pipeline
//
// Per element, short-circuiting at each step: eligibility re-check,
// text-length gates, eager processed-marking (the sole at-most-once
// guarantee), cache lookup, cheap local pre-filter, staggered remote
// call, heuristic fallback on remote failure, cache store, verdict
// delivery to the mutator.
package scanner
