// Package remote implements the HTTP client for the external
// classification and rephrasing service.
//
// The service contract is consumed as a black box: text goes in, a
// harmfulness judgment or a rewritten string comes back. The client owns
// only the wire format and a small bounded retry budget; recovery from
// persistent failure belongs to the caller, which substitutes the local
// heuristics instead of surfacing an error.
package remote
