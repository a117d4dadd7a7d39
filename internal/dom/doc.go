// Package dom provides HTML document loading and the element-level
// utilities the moderation engine is built on.
//
// This package contains:
//   - Load/LoadString/Fetch: parse a document from a reader, string, or URL
//   - Filter: the eligibility predicate deciding which elements are worth
//     analyzing
//   - Processed markers: the idempotency flag that guarantees at-most-once
//     analysis per element
//   - VisibleText/Normalize: text extraction and cache-key normalization
//
// Documents are represented as goquery documents over golang.org/x/net/html
// node trees. All overlay markup this module ever attaches to a page uses
// the "pageguard-" class prefix and "data-pageguard-" attribute prefix;
// the filter recognizes both so the engine never analyzes or double-wraps
// its own output.
package dom
