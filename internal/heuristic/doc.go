// Package heuristic implements the local keyword-based classification and
// rephrasing fallback.
//
// These heuristics run when the remote moderation service is unreachable
// or when the analysis pipeline short-circuits cheap cases locally. They
// are a deliberately lower-confidence approximation of the remote model:
// matched verdicts carry a fixed confidence of 0.7 and unmatched ones 0.6,
// against the remote service's model-derived confidence. Callers should
// treat heuristic verdicts as best-effort availability, not as equivalent
// classifications.
//
// Two independent heuristic tables exist in this module: the classifier's
// category pattern groups live here, while the scan scheduler keeps its
// own suspicious-token pre-filter list. They are tuned separately and are
// not required to agree.
package heuristic
