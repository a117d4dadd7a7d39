// Package mutator applies moderation verdicts to the document: warning
// badges, rephrased text, or flag classes.
//
// Every mutation is attributable and reversible. The mutator records a
// provenance entry per change (kind, target node, original text where a
// rewrite replaced it) in a modification index, so ReverseAll restores
// the pre-scan page in a single pass over the index rather than a
// document-wide query-and-guess.
//
// Rewritten text coming from the remote service passes through a strict
// sanitizer before injection; only plain text ever reaches the document.
package mutator
