// Package model defines the core data structures used throughout pageguard.
//
// This package contains the following main types:
//   - Category: classification of a text passage (safe, harmful, offensive, inappropriate)
//   - Verdict: the outcome of classifying a passage, immutable once produced
//   - RephraseResult: a rewritten passage paired with its original
//   - Settings: runtime moderation behavior owned by the settings store
//   - Modification: provenance record for a single reversible DOM mutation
//   - PageReport: the summarized result of moderating one document
//
// Models live in their own package because the scanner, mutator, store, and
// report packages all consume them; centralizing them prevents import cycles.
// Report types are serializable to JSON for report output and database storage.
package model
