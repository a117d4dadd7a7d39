package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pageguard/pageguard/internal/model"
)

func TestFileSettings(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields defaults", func(t *testing.T) {
		t.Parallel()

		fs := NewFileSettings(filepath.Join(t.TempDir(), "settings.yaml"))
		got, err := fs.Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != model.DefaultSettings() {
			t.Errorf("expected defaults, got %+v", got)
		}
	})

	t.Run("set and get round trip", func(t *testing.T) {
		t.Parallel()

		fs := NewFileSettings(filepath.Join(t.TempDir(), "settings.yaml"))
		want := model.Settings{
			Enabled:      true,
			AutoRephrase: true,
			ShowWarnings: false,
			Sensitivity:  model.SensitivityHigh,
		}
		if err := fs.Set(want); err != nil {
			t.Fatalf("failed to write settings: %v", err)
		}

		got, err := fs.Get()
		if err != nil {
			t.Fatalf("failed to read settings: %v", err)
		}
		if got != want {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
	})

	t.Run("absent fields keep defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "settings.yaml")
		if err := os.WriteFile(path, []byte("sensitivity: high\n"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		got, err := NewFileSettings(path).Get()
		if err != nil {
			t.Fatalf("failed to read settings: %v", err)
		}
		if got.Sensitivity != model.SensitivityHigh {
			t.Errorf("expected high sensitivity, got %s", got.Sensitivity)
		}
		if !got.Enabled || !got.ShowWarnings {
			t.Errorf("absent fields must keep defaults, got %+v", got)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "settings.yaml")
		if err := os.WriteFile(path, []byte("{not yaml"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		if _, err := NewFileSettings(path).Get(); err == nil {
			t.Error("expected an error for a malformed file")
		}
	})
}

func TestFileSettingsWatch(t *testing.T) {
	t.Parallel()

	t.Run("pushes a snapshot after the file changes", func(t *testing.T) {
		t.Parallel()

		fs := NewFileSettings(filepath.Join(t.TempDir(), "settings.yaml"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes := make(chan model.Settings, 4)
		done := make(chan error, 1)
		go func() {
			done <- fs.Watch(ctx, func(s model.Settings) {
				changes <- s
			})
		}()

		// Give the watcher time to arm before the first write.
		time.Sleep(100 * time.Millisecond)

		want := model.DefaultSettings()
		want.Enabled = false
		want.Sensitivity = model.SensitivityLow
		if err := fs.Set(want); err != nil {
			t.Fatalf("failed to write settings: %v", err)
		}

		select {
		case got := <-changes:
			if got != want {
				t.Errorf("snapshot mismatch: got %+v, want %+v", got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a change notification")
		}

		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("second watcher is rejected", func(t *testing.T) {
		t.Parallel()

		fs := NewFileSettings(filepath.Join(t.TempDir(), "settings.yaml"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- fs.Watch(ctx, func(model.Settings) {})
		}()
		time.Sleep(100 * time.Millisecond)

		if err := fs.Watch(ctx, func(model.Settings) {}); !errors.Is(err, ErrAlreadyWatching) {
			t.Errorf("expected ErrAlreadyWatching, got %v", err)
		}

		cancel()
		<-done
	})
}

func TestMemorySettings(t *testing.T) {
	t.Parallel()

	ms := NewMemorySettings(model.DefaultSettings())

	got, err := ms.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != model.DefaultSettings() {
		t.Errorf("expected defaults, got %+v", got)
	}

	want := model.DefaultSettings()
	want.AutoRephrase = true
	if err := ms.Set(want); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if got, _ := ms.Get(); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestMemoryStats(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStats()
	for range 2 {
		if err := ms.Increment(model.CounterAnalyzed); err != nil {
			t.Fatalf("failed to increment: %v", err)
		}
	}
	if err := ms.Increment("bogus"); !errors.Is(err, ErrUnknownCounter) {
		t.Errorf("expected ErrUnknownCounter, got %v", err)
	}

	stats := ms.Stats()
	if stats.Analyzed != 2 {
		t.Errorf("expected analyzed 2, got %d", stats.Analyzed)
	}

	ms.Reset()
	if stats := ms.Stats(); stats.Analyzed != 0 {
		t.Errorf("expected analyzed 0 after reset, got %d", stats.Analyzed)
	}
}
