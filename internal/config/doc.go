// Package config provides configuration structures and utilities for
// PageGuard. It defines the main scan options populated from CLI flags,
// the optional .pageguard configuration file, and XDG directory helpers
// for persistent state.
package config
