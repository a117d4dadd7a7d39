package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pageguard/pageguard/internal/config"
	"github.com/pageguard/pageguard/internal/model"
	"github.com/pageguard/pageguard/internal/report"
	"github.com/pageguard/pageguard/internal/store"
)

// NewStatsCmd creates the stats command.
// This command reports the aggregate moderation counters and the scan
// history stored in the database.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [source]",
		Short: "Show moderation statistics and scan history",
		Long: `Stats displays the aggregate moderation counters (elements analyzed,
flagged, and rephrased) together with the stored scan history.

The counters accumulate across scans until reset. Passing a source
(file path or URL) restricts the history listing to that page.

Examples:
  # Show counters and recent history
  pageguard stats

  # Show history for one page
  pageguard stats page.html

  # Show more history rows
  pageguard stats --limit 50

  # Print the full stored report for history row 12
  pageguard stats --show 12

  # Print the most recent stored report for a page
  pageguard stats --latest page.html

  # Zero the counters
  pageguard stats --reset

  # Machine-readable output
  pageguard stats --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStatsCmd,
	}

	cmd.Flags().Bool("reset", false,
		"Zero the aggregate counters and record the reset time")
	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Maximum number of history rows to show")
	cmd.Flags().BoolP("json", "j", false,
		"Output statistics in JSON format")
	cmd.Flags().String("db-dir", "",
		"Directory of the statistics database (default: XDG data directory)")
	cmd.Flags().Int64("show", 0,
		"Print the full stored report for a history row ID")
	cmd.Flags().Bool("latest", false,
		"Print the most recent stored report for the given source")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, args []string) error {
	reset, err := cmd.Flags().GetBool("reset")
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}

	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}

	var source string
	if len(args) > 0 {
		source = args[0]
	}

	db, err := store.Open(dbDir, store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	if showID > 0 {
		scan, err := db.ScanByID(ctx, showID)
		if err != nil {
			return fmt.Errorf("failed to read scan: %w", err)
		}
		if scan == nil {
			return fmt.Errorf("no stored scan with ID %d", showID)
		}
		_, err = report.NewSimpleWriter(cmd.OutOrStdout()).Write(scan)
		return err
	}

	if latest {
		if source == "" {
			return errors.New("--latest requires a source argument")
		}
		scan, err := db.LatestScan(ctx, source)
		if err != nil {
			return fmt.Errorf("failed to read scan: %w", err)
		}
		if scan == nil {
			return fmt.Errorf("no stored scans for %s", source)
		}
		_, err = report.NewSimpleWriter(cmd.OutOrStdout()).Write(scan)
		return err
	}

	if reset {
		prev, err := db.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to read statistics: %w", err)
		}
		if err := db.ResetCounters(ctx); err != nil {
			return fmt.Errorf("failed to reset counters: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Counters reset. Previous: analyzed=%d flagged=%d rephrased=%d\n",
			prev.Analyzed, prev.Harmful, prev.Rephrased)
		return nil
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read statistics: %w", err)
	}

	history, err := db.History(ctx, source, limit)
	if err != nil {
		return fmt.Errorf("failed to read scan history: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Statistics model.Statistics    `json:"statistics"`
			History    []store.ScanSummary `json:"history"`
		}{stats, history})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "MODERATION STATISTICS")
	fmt.Fprintf(out, "  Analyzed:  %d\n", stats.Analyzed)
	fmt.Fprintf(out, "  Flagged:   %d\n", stats.Harmful)
	fmt.Fprintf(out, "  Rephrased: %d\n", stats.Rephrased)
	if !stats.LastReset.IsZero() {
		fmt.Fprintf(out, "  Last reset: %s\n", stats.LastReset.Format("2006-01-02 15:04:05"))
	}

	if len(history) == 0 {
		fmt.Fprintln(out, "\nNo scan history.")
		return nil
	}

	fmt.Fprintln(out, "\nSCAN HISTORY")
	for _, s := range history {
		fmt.Fprintf(out, "  [%d] %s  %s  analyzed=%d flagged=%d rephrased=%d\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.Source,
			s.Analyzed, s.Harmful, s.Rephrased)
	}

	return nil
}
