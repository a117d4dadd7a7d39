package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pageguard/pageguard/internal/model"
	"github.com/pageguard/pageguard/internal/store"
)

// TestNewStatsCmd tests the stats command creation.
func TestNewStatsCmd(t *testing.T) {
	t.Parallel()

	cmd := NewStatsCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "stats [source]" {
			t.Errorf("expected use 'stats [source]', got %q", cmd.Use)
		}
	})

	t.Run("has reset flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("reset")
		if flag == nil {
			t.Fatal("expected reset flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has limit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("limit")
		if flag == nil {
			t.Fatal("expected limit flag")
		}
		if flag.Shorthand != "n" {
			t.Errorf("expected shorthand 'n', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})
}

// seedStatsDB populates a database with counters and one stored scan.
func seedStatsDB(t *testing.T, dbDir string) {
	t.Helper()

	db, err := store.Open(dbDir, store.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for range 3 {
		if err := db.IncrementCounter(ctx, model.CounterAnalyzed); err != nil {
			t.Fatalf("failed to increment counter: %v", err)
		}
	}
	if err := db.IncrementCounter(ctx, model.CounterHarmful); err != nil {
		t.Fatalf("failed to increment counter: %v", err)
	}

	report := model.NewPageReport("page.html")
	report.ScannedAt = time.Now()
	report.Analyzed = 3
	report.Harmful = 1
	if err := db.SaveScan(ctx, report); err != nil {
		t.Fatalf("failed to save scan: %v", err)
	}
}

// TestRunStatsCmd tests the stats command execution.
func TestRunStatsCmd(t *testing.T) {
	t.Run("shows counters and history", func(t *testing.T) {
		dbDir := t.TempDir()
		seedStatsDB(t, dbDir)

		cmd := NewStatsCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Analyzed:  3") {
			t.Errorf("expected analyzed counter in output, got %q", output)
		}
		if !strings.Contains(output, "SCAN HISTORY") {
			t.Errorf("expected scan history section, got %q", output)
		}
		if !strings.Contains(output, "page.html") {
			t.Errorf("expected scan source in history, got %q", output)
		}
	})

	t.Run("shows empty history message", func(t *testing.T) {
		cmd := NewStatsCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "No scan history.") {
			t.Errorf("expected empty history message, got %q", buf.String())
		}
	})

	t.Run("filters history by source", func(t *testing.T) {
		dbDir := t.TempDir()
		seedStatsDB(t, dbDir)

		cmd := NewStatsCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir, "other.html"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "No scan history.") {
			t.Errorf("expected no history for unknown source, got %q", buf.String())
		}
	})

	t.Run("outputs JSON", func(t *testing.T) {
		dbDir := t.TempDir()
		seedStatsDB(t, dbDir)

		cmd := NewStatsCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir, "--json"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, `"statistics"`) {
			t.Errorf("expected statistics key in JSON, got %q", output)
		}
		if !strings.Contains(output, `"history"`) {
			t.Errorf("expected history key in JSON, got %q", output)
		}
	})

	t.Run("shows a stored report by ID", func(t *testing.T) {
		dbDir := t.TempDir()
		seedStatsDB(t, dbDir)

		db, err := store.Open(dbDir, store.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		history, err := db.History(context.Background(), "", 0)
		db.Close()
		if err != nil || len(history) == 0 {
			t.Fatalf("failed to read seeded history: %v", err)
		}

		cmd := NewStatsCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir, "--show", strconv.FormatInt(history[0].ID, 10)})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "PAGEGUARD REPORT") {
			t.Errorf("expected full report output, got %q", output)
		}
		if !strings.Contains(output, "page.html") {
			t.Errorf("expected report source in output, got %q", output)
		}
	})

	t.Run("unknown scan ID is an error", func(t *testing.T) {
		cmd := NewStatsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", t.TempDir(), "--show", "999"})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for unknown scan ID")
		}
	})

	t.Run("shows the latest report for a source", func(t *testing.T) {
		dbDir := t.TempDir()
		seedStatsDB(t, dbDir)

		cmd := NewStatsCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir, "--latest", "page.html"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "PAGEGUARD REPORT") {
			t.Errorf("expected full report output, got %q", buf.String())
		}
	})

	t.Run("latest without a source is an error", func(t *testing.T) {
		cmd := NewStatsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", t.TempDir(), "--latest"})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error when --latest is given no source")
		}
	})

	t.Run("resets counters", func(t *testing.T) {
		dbDir := t.TempDir()
		seedStatsDB(t, dbDir)

		cmd := NewStatsCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir, "--reset"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Counters reset.") {
			t.Errorf("expected reset confirmation, got %q", buf.String())
		}

		db, err := store.Open(dbDir, store.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			t.Fatalf("failed to read stats: %v", err)
		}
		if stats.Analyzed != 0 {
			t.Errorf("expected analyzed counter 0 after reset, got %d", stats.Analyzed)
		}
		if stats.LastReset.IsZero() {
			t.Error("expected reset time to be recorded")
		}
	})
}
