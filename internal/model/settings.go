package model

import "strings"

// Sensitivity controls how confident a verdict must be before the engine
// acts on it. Higher sensitivity flags more content.
type Sensitivity int

const (
	// SensitivityLow only acts on high-confidence verdicts.
	SensitivityLow Sensitivity = iota

	// SensitivityMedium is the default level.
	SensitivityMedium

	// SensitivityHigh acts even on borderline verdicts.
	SensitivityHigh
)

// Confidence thresholds per sensitivity level. A flagged verdict whose
// confidence falls below the active threshold is treated as safe.
const (
	lowThreshold    = 0.85
	mediumThreshold = 0.65
	highThreshold   = 0.45
)

// String returns the configuration-file name of the sensitivity level.
func (s Sensitivity) String() string {
	switch s {
	case SensitivityLow:
		return "low"
	case SensitivityMedium:
		return "medium"
	case SensitivityHigh:
		return "high"
	default:
		return "medium"
	}
}

// Threshold returns the minimum verdict confidence required to act at
// this sensitivity level.
func (s Sensitivity) Threshold() float64 {
	switch s {
	case SensitivityLow:
		return lowThreshold
	case SensitivityHigh:
		return highThreshold
	default:
		return mediumThreshold
	}
}

// ParseSensitivity converts a configuration-file name into a Sensitivity.
// Unknown names map to SensitivityMedium.
func ParseSensitivity(s string) Sensitivity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SensitivityLow
	case "high":
		return SensitivityHigh
	default:
		return SensitivityMedium
	}
}

// MarshalYAML encodes the sensitivity as its configuration-file name.
func (s Sensitivity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML decodes a configuration-file name into a Sensitivity.
func (s *Sensitivity) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	*s = ParseSensitivity(name)
	return nil
}

// Settings is the runtime moderation behavior. The settings store owns
// this data; the engine reads a snapshot at pipeline start and replaces it
// wholesale on every change notification. The engine never mutates it.
type Settings struct {
	// Enabled turns the whole pipeline on or off. Disabling tears down
	// the mutation watcher and reverses every modification on the page.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// AutoRephrase replaces flagged text with a rewritten version instead
	// of (or in addition to) warning about it.
	AutoRephrase bool `yaml:"auto_rephrase" json:"auto_rephrase"`

	// ShowWarnings inserts a warning badge on flagged elements.
	ShowWarnings bool `yaml:"show_warnings" json:"show_warnings"`

	// Sensitivity sets the confidence threshold for acting on verdicts.
	Sensitivity Sensitivity `yaml:"sensitivity" json:"sensitivity"`
}

// DefaultSettings returns the settings used when no settings file exists:
// pipeline enabled, warnings on, auto-rephrase off, medium sensitivity.
func DefaultSettings() Settings {
	return Settings{
		Enabled:      true,
		AutoRephrase: false,
		ShowWarnings: true,
		Sensitivity:  SensitivityMedium,
	}
}
