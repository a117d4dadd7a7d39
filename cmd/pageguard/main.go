// Package main provides the entry point for the PageGuard CLI.
//
// PageGuard is a content moderation tool for HTML pages. It scans
// readable text, classifies it through a moderation service (with local
// heuristics as fallback), and overlays warnings or rewrites on flagged
// passages.
//
// Usage:
//
//	pageguard scan <file-or-url>
//	pageguard scan --offline page.html
//	pageguard serve
//
// See --help for all available options.
package main

// main is the entry point for PageGuard.
func main() {
	Execute()
}
