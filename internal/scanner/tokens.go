package scanner

import "strings"

// defaultSuspiciousTokens is the scheduler's cheap pre-filter list. A
// passage containing one of these tokens is worth a remote call even when
// short; a passage with none is analyzed only when long.
//
// This list is tuned independently from the heuristic classifier's
// category tables: the two serve different purposes (recall-oriented
// triage here, precision-oriented classification there) and are not kept
// in sync.
var defaultSuspiciousTokens = []string{
	"kill", "bomb", "attack", "weapon", "gun", "murder", "violence",
	"die", "hurt", "hate", "stupid", "idiot",
	"porn", "explicit", "nude", "drug", "gambling", "casino",
}

// suspicious reports whether text contains any of the engine's
// suspicious tokens.
func (e *Engine) suspicious(text string) bool {
	lower := strings.ToLower(text)
	for _, token := range e.tokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
