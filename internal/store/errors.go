package store

import "errors"

var (
	// ErrUnknownCounter is returned when a counter name is not one of the
	// recognized moderation counters.
	ErrUnknownCounter = errors.New("store: unknown counter")

	// ErrAlreadyWatching is returned when Watch is invoked on a settings
	// store that is already watching its file.
	ErrAlreadyWatching = errors.New("store: settings file already being watched")
)
