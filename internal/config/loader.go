package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pageguard/pageguard/internal/model"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".pageguard"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .pageguard configuration file.
type File struct {
	// Settings is the moderation behavior section. When present it
	// replaces the built-in defaults; CLI flags still win over it.
	Settings *model.Settings `yaml:"settings,omitempty"`

	// Remote configures the moderation service connection.
	Remote RemoteFile `yaml:"remote,omitempty"`

	// Heuristics customizes the local fallback classifier and rephraser.
	Heuristics HeuristicsFile `yaml:"heuristics,omitempty"`
}

// RemoteFile is the moderation service section of the configuration file.
type RemoteFile struct {
	// Endpoint is the base URL of the moderation service.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Timeout overrides the per-request timeout (e.g. "10s").
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// HeuristicsFile is the local heuristics section of the configuration
// file. Term lists replace the built-in table for the named category;
// replacements are merged over the built-in substitution table.
type HeuristicsFile struct {
	// Terms maps a category name (inappropriate, offensive, harmful) to
	// the term list used by the fallback classifier.
	Terms map[string][]string `yaml:"terms,omitempty"`

	// Replacements maps offensive words to their milder substitutes used
	// by the fallback rephraser.
	Replacements map[string]string `yaml:"replacements,omitempty"`

	// SuspiciousTokens replaces the scheduler's pre-filter token list.
	SuspiciousTokens []string `yaml:"suspicious_tokens,omitempty"`
}

// LoadConfigFile loads configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply folds the configuration file into the Config. CLI flags are
// harvested before this runs, so only unset values are filled in:
// the endpoint when it is still the default, and the timeout when the
// file specifies one and the flag did not.
func (c *Config) Apply(cf *File) {
	if cf == nil {
		return
	}
	c.Overrides = cf

	if cf.Remote.Endpoint != "" && c.RemoteEndpoint == DefaultRemoteEndpoint {
		c.RemoteEndpoint = cf.Remote.Endpoint
	}
	if cf.Remote.Timeout > 0 && c.Timeout == DefaultTimeout {
		c.Timeout = cf.Remote.Timeout
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .pageguard in the current directory
// 3. Look for .pageguard in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
