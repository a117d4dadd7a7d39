// Package service implements the reference moderation service: a small
// HTTP server exposing the analyze and rephrase endpoints the scanning
// pipeline consumes, backed by the same local heuristics the pipeline
// falls back to. It exists so the full remote path can run end to end
// without an external dependency, and doubles as the wire-contract
// documentation for real deployments.
package service
