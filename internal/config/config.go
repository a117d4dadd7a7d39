package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/pageguard/pageguard/internal/model"
)

// Default configuration values.
const (
	// DefaultRemoteEndpoint is the moderation service address used when no
	// endpoint is configured. The reference service listens on 8000.
	DefaultRemoteEndpoint = "http://127.0.0.1:8000"

	// DefaultTimeout is the per-request timeout for moderation calls.
	// Classification of a single passage is fast; anything slower than
	// this indicates a stuck service, and the local heuristics take over.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize limits the maximum page size to read when
	// fetching a URL. 5MB is sufficient for most HTML pages while
	// preventing memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultServeAddr is the listen address for the reference moderation
	// service started by the serve command.
	DefaultServeAddr = ":8000"

	// DefaultHistoryLimit caps the number of rows shown by the stats
	// command's scan history.
	DefaultHistoryLimit = 20

	// AppName is the application name used for XDG directory paths.
	AppName = "pageguard"
)

// Config holds all configuration options for a PageGuard scan.
// This struct is designed to be populated from CLI flags and passed
// through the application via dependency injection rather than global
// state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// Inputs is the list of pages to scan: local HTML file paths,
	// http(s) URLs, or "-" for standard input.
	Inputs []string

	// RemoteEndpoint is the base URL of the moderation service.
	RemoteEndpoint string

	// Offline disables the remote moderation service entirely; every
	// verdict comes from the local heuristics.
	Offline bool

	// AutoRephrase replaces flagged content with rewritten text instead
	// of only warning about it.
	AutoRephrase bool

	// NoWarnings suppresses the warning badges inserted on flagged
	// elements.
	NoWarnings bool

	// Sensitivity is the confidence threshold name: low, medium, or high.
	// An empty value means medium.
	Sensitivity string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Timeout is the per-request timeout for moderation service calls
	// and page fetches.
	Timeout time.Duration

	// MaxBodySize is the maximum page size in bytes to read when
	// fetching a URL. Set to 0 to use the default (5MB).
	MaxBodySize int64

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .pageguard in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Overrides holds the configuration file contents, when one was
	// found. This is populated by LoadConfigFile.
	Overrides *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// WriteModified writes the moderated HTML next to the report.
	WriteModified bool

	// OutDir is the directory for moderated HTML output. Empty means
	// alongside the input (or stdout for stdin input).
	OutDir string

	// DBDir is the directory path for storing the SQLite database.
	// When set, aggregate counters and scan history are persisted.
	// Defaults to the XDG data directory when persistence is requested.
	DBDir string

	// SaveToDB indicates whether to persist counters and scan history.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// WatchSettings keeps the process alive after the initial scan,
	// watching SettingsFile and applying each change to the scanned
	// page. Watch mode supports exactly one input.
	WatchSettings bool

	// SettingsFile is the runtime settings file observed in watch mode.
	// Empty selects settings.yaml in the XDG config directory.
	SettingsFile string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		RemoteEndpoint: DefaultRemoteEndpoint,
		Timeout:        DefaultTimeout,
		MaxBodySize:    DefaultMaxBodySize,
		Sensitivity:    model.SensitivityMedium.String(),
	}
}

// Settings derives the engine settings from the configuration: the
// configuration file's settings section first, then the CLI flag
// overrides on top.
func (c *Config) Settings() model.Settings {
	settings := model.DefaultSettings()
	if c.Overrides != nil && c.Overrides.Settings != nil {
		settings = *c.Overrides.Settings
	}

	if c.AutoRephrase {
		settings.AutoRephrase = true
	}
	if c.NoWarnings {
		settings.ShowWarnings = false
	}
	if c.Sensitivity != "" {
		settings.Sensitivity = model.ParseSensitivity(c.Sensitivity)
	}
	return settings
}

// XDGDataDir returns the XDG data directory for PageGuard.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/pageguard
// On macOS: ~/Library/Application Support/pageguard
// On Windows: %LOCALAPPDATA%\pageguard
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for PageGuard.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/pageguard
// On macOS: ~/Library/Application Support/pageguard
// On Windows: %APPDATA%\pageguard
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one page to scan
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// MaxBodySize must be non-negative; 0 selects the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// Sensitivity must be a recognized level name when set
	switch c.Sensitivity {
	case "", "low", "medium", "high":
	default:
		return ErrInvalidSensitivity
	}

	// A remote endpoint is required unless running offline
	if !c.Offline && c.RemoteEndpoint == "" {
		return ErrNoRemoteEndpoint
	}

	// Watch mode keeps one page alive in memory; a multi-page watch has
	// no sensible output
	if c.WatchSettings && len(c.Inputs) != 1 {
		return ErrWatchSingleInput
	}

	return nil
}
