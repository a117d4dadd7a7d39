package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoInput is returned when no page to scan is specified.
	// Provide an HTML file path, a URL, or "-" for standard input.
	ErrNoInput = errors.New("no input specified: provide an HTML file, a URL, or - for stdin")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidSensitivity is returned when the sensitivity is not one of
	// low, medium, or high.
	ErrInvalidSensitivity = errors.New("invalid sensitivity: must be low, medium, or high")

	// ErrNoRemoteEndpoint is returned when the remote endpoint is empty
	// and offline mode is not requested.
	ErrNoRemoteEndpoint = errors.New("no remote endpoint: set --remote or use --offline")

	// ErrWatchSingleInput is returned when watch mode is combined with
	// multiple inputs. Watch mode follows settings changes against one
	// scanned page.
	ErrWatchSingleInput = errors.New("watch mode requires exactly one input")
)
