package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/pageguard/pageguard/internal/model"
)

// settingsDebounce coalesces bursts of file events (editors often write
// a settings file in several steps) into one change notification.
const settingsDebounce = 100 * time.Millisecond

// SettingsStore owns the user settings. The engine reads a snapshot and
// receives replacement snapshots through change notifications; it never
// writes settings back.
type SettingsStore interface {
	// Get returns the current settings.
	Get() (model.Settings, error)

	// Set replaces the settings wholesale.
	Set(model.Settings) error
}

// FileSettings stores settings in a YAML file and can watch it for
// external edits.
type FileSettings struct {
	// path is the settings file location.
	path string

	logger *slog.Logger

	// mu guards the watching flag.
	mu       sync.Mutex
	watching bool
}

// FileSettingsOption configures a FileSettings.
type FileSettingsOption func(*FileSettings)

// WithSettingsLogger sets a custom logger. Defaults to slog.Default().
func WithSettingsLogger(logger *slog.Logger) FileSettingsOption {
	return func(f *FileSettings) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFileSettings creates a FileSettings backed by the given path. The
// file does not need to exist yet; Get falls back to defaults until the
// first Set.
func NewFileSettings(path string, opts ...FileSettingsOption) *FileSettings {
	f := &FileSettings{
		path:   filepath.Clean(path),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the settings file location.
func (f *FileSettings) Path() string {
	return f.path
}

// Get reads the settings file. A missing file yields the defaults;
// fields absent from the file keep their default values.
func (f *FileSettings) Get() (model.Settings, error) {
	settings := model.DefaultSettings()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return model.DefaultSettings(), fmt.Errorf("failed to parse settings file: %w", err)
	}
	return settings, nil
}

// Set writes the settings file. The write goes through a temporary file
// and a rename so a concurrent watcher never observes a half-written
// file.
func (f *FileSettings) Set(settings model.Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pageguard-settings-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary settings file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// Watch blocks and invokes onChange with a full settings snapshot every
// time the file changes, until the context is cancelled. Bursts of file
// events are debounced into one notification. A FileSettings supports
// one watcher at a time.
func (f *FileSettings) Watch(ctx context.Context, onChange func(model.Settings)) error {
	f.mu.Lock()
	if f.watching {
		f.mu.Unlock()
		return ErrAlreadyWatching
	}
	f.watching = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.watching = false
		f.mu.Unlock()
	}()

	// Watch the directory rather than the file: editors and the atomic
	// Set above replace the file by rename, which would invalidate a
	// direct file watch.
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck // nothing to do about close errors on shutdown

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch settings directory: %w", err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settingsDebounce)
			} else {
				timer.Stop()
				timer.Reset(settingsDebounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("settings watcher error", "error", err)

		case <-fire:
			fire = nil
			settings, err := f.Get()
			if err != nil {
				f.logger.Warn("failed to reload settings, keeping previous snapshot", "error", err)
				continue
			}
			f.logger.Info("settings file changed",
				"enabled", settings.Enabled,
				"sensitivity", settings.Sensitivity.String(),
			)
			onChange(settings)
		}
	}
}

// MemorySettings is an in-process settings store for sessions that run
// without a settings file. Safe for concurrent use.
type MemorySettings struct {
	mu       sync.Mutex
	settings model.Settings
}

// NewMemorySettings creates a MemorySettings holding the given settings.
func NewMemorySettings(settings model.Settings) *MemorySettings {
	return &MemorySettings{settings: settings}
}

// Get returns the current settings.
func (m *MemorySettings) Get() (model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

// Set replaces the settings wholesale.
func (m *MemorySettings) Set(settings model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
	return nil
}
