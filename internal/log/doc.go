// Package log provides logging with automatic redaction of page text,
// built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Masking of attributes that carry verbatim page text
//   - Truncation of oversized string attributes
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Redaction
//
// The RedactHandler masks log attributes under text-bearing keys
// (text, original_text, rephrased_text, excerpt) so flagged content
// never lands in logs, and truncates any string attribute above a fixed
// length cap. Even in verbose mode the verbatim text stays masked:
// debug output describes elements by tag, selector, and length instead.
//
// # Usage
//
//	// Create a redacting logger
//	logger := log.NewRedactLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("element flagged",
//	    "text", passage,   // Will be masked
//	    "tag", "p",
//	    "length", len(passage),
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
