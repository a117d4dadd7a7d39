// Package store persists moderation state across scan sessions: the
// aggregate statistics counters, the scan history, and the user settings
// file. The SQLite-backed DB owns counters and history; the settings
// store owns the YAML settings file and pushes change notifications to
// the scanning pipeline.
package store
