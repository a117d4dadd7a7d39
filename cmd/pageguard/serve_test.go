package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pageguard/pageguard/internal/config"
	"github.com/pageguard/pageguard/internal/service"
)

// TestNewServeCmd tests the serve command creation.
func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "serve" {
			t.Errorf("expected use 'serve', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has addr flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("addr")
		if flag == nil {
			t.Fatal("expected addr flag")
		}
		if flag.Shorthand != "a" {
			t.Errorf("expected shorthand 'a', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultServeAddr {
			t.Errorf("expected default %q, got %q", config.DefaultServeAddr, flag.DefValue)
		}
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		t.Parallel()

		c := NewServeCmd()
		c.SetArgs([]string{"extra"})
		if err := c.Execute(); err == nil {
			t.Error("expected error for positional arguments")
		}
	})
}

// TestServeOptions tests that configuration file heuristics reach the
// served endpoints.
func TestServeOptions(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		t.Parallel()

		if _, err := serveOptions(filepath.Join(t.TempDir(), "absent.yaml"), logger); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("replacement overrides reach the rephrase endpoint", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".pageguard")
		content := `heuristics:
  replacements:
    daft: cheerful
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		opts, err := serveOptions(configPath, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ts := httptest.NewServer(service.NewServer(opts...).Handler())
		defer ts.Close()

		body, err := json.Marshal(map[string]string{
			"text":     "you are daft",
			"category": "offensive",
		})
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}

		resp, err := http.Post(ts.URL+"/rephrase", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		var out struct {
			Rephrased string `json:"rephrased"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !strings.Contains(out.Rephrased, "cheerful") {
			t.Errorf("rephrased = %q, want the configured replacement applied", out.Rephrased)
		}
	})
}
