package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pageguard/pageguard/internal/model"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected
// default values. This serves as living documentation of the defaults:
// changes to defaults must be intentional or these tests fail.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default RemoteEndpoint is the local reference service", func(t *testing.T) {
		t.Parallel()
		if cfg.RemoteEndpoint != "http://127.0.0.1:8000" {
			t.Errorf("expected RemoteEndpoint to be 'http://127.0.0.1:8000', got '%s'", cfg.RemoteEndpoint)
		}
	})

	t.Run("default Timeout is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected Timeout to be 10s, got %v", cfg.Timeout)
		}
	})

	t.Run("default MaxBodySize is 5MB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxBodySize != 5*1024*1024 {
			t.Errorf("expected MaxBodySize to be 5MB, got %d", cfg.MaxBodySize)
		}
	})

	t.Run("default Sensitivity is medium", func(t *testing.T) {
		t.Parallel()
		if cfg.Sensitivity != "medium" {
			t.Errorf("expected Sensitivity to be 'medium', got '%s'", cfg.Sensitivity)
		}
	})

	t.Run("offline and persistence are off by default", func(t *testing.T) {
		t.Parallel()
		if cfg.Offline || cfg.SaveToDB {
			t.Errorf("expected Offline and SaveToDB to be false, got %v/%v", cfg.Offline, cfg.SaveToDB)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Inputs = []string{"page.html"}
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()
		if err := valid().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Inputs = nil
		if err := cfg.Validate(); !errors.Is(err, ErrNoInput) {
			t.Errorf("expected ErrNoInput, got %v", err)
		}
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Timeout = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got %v", err)
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.JSONReport = true
		cfg.MarkdownReport = true
		if err := cfg.Validate(); !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("negative max body size", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.MaxBodySize = -1
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidMaxBodySize) {
			t.Errorf("expected ErrInvalidMaxBodySize, got %v", err)
		}
	})

	t.Run("unknown sensitivity", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Sensitivity = "paranoid"
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidSensitivity) {
			t.Errorf("expected ErrInvalidSensitivity, got %v", err)
		}
	})

	t.Run("empty endpoint without offline", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.RemoteEndpoint = ""
		if err := cfg.Validate(); !errors.Is(err, ErrNoRemoteEndpoint) {
			t.Errorf("expected ErrNoRemoteEndpoint, got %v", err)
		}
	})

	t.Run("watch mode with multiple inputs", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.WatchSettings = true
		cfg.Inputs = []string{"a.html", "b.html"}
		if err := cfg.Validate(); !errors.Is(err, ErrWatchSingleInput) {
			t.Errorf("expected ErrWatchSingleInput, got %v", err)
		}
	})

	t.Run("empty endpoint with offline is valid", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.RemoteEndpoint = ""
		cfg.Offline = true
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestConfigSettings(t *testing.T) {
	t.Parallel()

	t.Run("defaults without file or flags", func(t *testing.T) {
		t.Parallel()
		if got := NewConfig().Settings(); got != model.DefaultSettings() {
			t.Errorf("expected default settings, got %+v", got)
		}
	})

	t.Run("flags override file settings", func(t *testing.T) {
		t.Parallel()

		fileSettings := model.DefaultSettings()
		fileSettings.ShowWarnings = true
		fileSettings.Sensitivity = model.SensitivityLow

		cfg := NewConfig()
		cfg.Overrides = &File{Settings: &fileSettings}
		cfg.NoWarnings = true
		cfg.Sensitivity = "high"
		cfg.AutoRephrase = true

		got := cfg.Settings()
		if got.ShowWarnings {
			t.Error("expected --no-warnings to win over the file")
		}
		if got.Sensitivity != model.SensitivityHigh {
			t.Errorf("expected high sensitivity, got %s", got.Sensitivity)
		}
		if !got.AutoRephrase {
			t.Error("expected --rephrase to enable auto-rephrase")
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("parses all sections", func(t *testing.T) {
		t.Parallel()

		content := `
settings:
  enabled: true
  auto_rephrase: true
  show_warnings: false
  sensitivity: high
remote:
  endpoint: http://moderation.internal:9000
  timeout: 30s
heuristics:
  terms:
    offensive: [jerk, loser]
  replacements:
    stupid: misguided
  suspicious_tokens: [kill, bomb]
`
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if cf.Settings == nil || !cf.Settings.AutoRephrase || cf.Settings.ShowWarnings {
			t.Errorf("settings section mismatch: %+v", cf.Settings)
		}
		if cf.Settings.Sensitivity != model.SensitivityHigh {
			t.Errorf("expected high sensitivity, got %s", cf.Settings.Sensitivity)
		}
		if cf.Remote.Endpoint != "http://moderation.internal:9000" {
			t.Errorf("endpoint mismatch: %s", cf.Remote.Endpoint)
		}
		if cf.Remote.Timeout != 30*time.Second {
			t.Errorf("timeout mismatch: %v", cf.Remote.Timeout)
		}
		if len(cf.Heuristics.Terms["offensive"]) != 2 {
			t.Errorf("terms mismatch: %+v", cf.Heuristics.Terms)
		}
		if cf.Heuristics.Replacements["stupid"] != "misguided" {
			t.Errorf("replacements mismatch: %+v", cf.Heuristics.Replacements)
		}
		if len(cf.Heuristics.SuspiciousTokens) != 2 {
			t.Errorf("suspicious tokens mismatch: %+v", cf.Heuristics.SuspiciousTokens)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("{broken"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected an error for malformed YAML")
		}
	})
}

func TestConfigApply(t *testing.T) {
	t.Parallel()

	t.Run("file fills unset values", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Apply(&File{Remote: RemoteFile{
			Endpoint: "http://moderation.internal:9000",
			Timeout:  30 * time.Second,
		}})

		if cfg.RemoteEndpoint != "http://moderation.internal:9000" {
			t.Errorf("expected file endpoint, got %s", cfg.RemoteEndpoint)
		}
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected file timeout, got %v", cfg.Timeout)
		}
	})

	t.Run("flags win over the file", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.RemoteEndpoint = "http://flag.example:7000"
		cfg.Timeout = 5 * time.Second
		cfg.Apply(&File{Remote: RemoteFile{
			Endpoint: "http://moderation.internal:9000",
			Timeout:  30 * time.Second,
		}})

		if cfg.RemoteEndpoint != "http://flag.example:7000" {
			t.Errorf("expected flag endpoint to win, got %s", cfg.RemoteEndpoint)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected flag timeout to win, got %v", cfg.Timeout)
		}
	})

	t.Run("nil file is a no-op", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Apply(nil)
		if cfg.Overrides != nil {
			t.Error("expected no overrides")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	// Not parallel: changes the working directory.

	t.Run("explicit existing path wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
	})

	t.Run("explicit missing path yields empty", func(t *testing.T) {
		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope")); got != "" {
			t.Errorf("expected empty path, got %s", got)
		}
	})

	t.Run("current directory is searched", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		t.Chdir(dir)

		got := FindConfigFile("")
		// macOS resolves /tmp through a symlink, so compare the base name.
		if filepath.Base(got) != DefaultConfigFile {
			t.Errorf("expected to find %s in cwd, got %s", DefaultConfigFile, got)
		}
	})
}
