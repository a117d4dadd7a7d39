package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pageguard/pageguard/internal/config"
	"github.com/pageguard/pageguard/internal/dom"
	"github.com/pageguard/pageguard/internal/heuristic"
	"github.com/pageguard/pageguard/internal/log"
	"github.com/pageguard/pageguard/internal/model"
	"github.com/pageguard/pageguard/internal/remote"
	"github.com/pageguard/pageguard/internal/report"
	"github.com/pageguard/pageguard/internal/scanner"
	"github.com/pageguard/pageguard/internal/store"
)

// scanConcurrency bounds parallel page scans when multiple inputs are
// given. Each scan drives its own engine; the remote service is the
// shared resource, and four concurrent pages keep it busy without
// flooding it.
const scanConcurrency = 4

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [file|url|-]",
		Short: "Scan HTML pages and moderate flagged content",
		Long: `Scan loads one or more HTML pages, analyzes their readable text, and
overlays moderation results on flagged passages.

Inputs may be local file paths, http(s) URLs, or "-" for standard input.
Verdicts come from the moderation service at --remote; when the service
is unreachable (or --offline is set), local keyword heuristics decide.

Examples:
  # Scan a local file
  pageguard scan page.html

  # Scan a live page
  pageguard scan https://example.com/forum

  # Scan several pages, heuristics only
  pageguard scan --offline a.html b.html c.html

  # Rewrite flagged text instead of only warning
  pageguard scan --rephrase --write page.html

  # Output JSON report to a file
  pageguard scan --json -o report.json page.html

  # Keep running and follow runtime settings changes
  pageguard scan --watch --settings-file settings.yaml page.html

Configuration file (.pageguard) example:
  settings:
    auto_rephrase: true
    sensitivity: high
  remote:
    endpoint: "http://moderation.internal:8000"
  heuristics:
    replacements:
      idiot: "unwise person"`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Moderation service flags
	cmd.Flags().StringP("remote", "r", config.DefaultRemoteEndpoint,
		"Base URL of the moderation service")
	cmd.Flags().Bool("offline", false,
		"Skip the moderation service and use local heuristics only")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each moderation request and page fetch")

	// Moderation behavior flags
	cmd.Flags().Bool("rephrase", false,
		"Replace flagged text with a rewritten version")
	cmd.Flags().Bool("no-warnings", false,
		"Suppress warning badges on flagged elements")
	cmd.Flags().StringP("sensitivity", "s", model.SensitivityMedium.String(),
		"Confidence threshold for acting on verdicts (low, medium, high)")

	// Fetch flags
	cmd.Flags().Int64("max-body", config.DefaultMaxBodySize,
		"Maximum page size in bytes when fetching a URL")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pageguard in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Moderated HTML output flags
	cmd.Flags().BoolP("write", "w", false,
		"Write the moderated HTML next to each input")
	cmd.Flags().String("out-dir", "",
		"Directory for moderated HTML output (default: alongside the input)")

	// Persistence flags
	cmd.Flags().String("db-dir", "",
		"Directory for the statistics database (default: XDG data directory)")

	// Watch mode flags
	cmd.Flags().Bool("watch", false,
		"Keep running after the scan and apply settings file changes to the page")
	cmd.Flags().String("settings-file", "",
		"Runtime settings file observed in --watch mode (default: settings.yaml in the XDG config directory)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging. Flagged page text must not leak into
	// log output, so the redacting handler wraps the text handler.
	verbose := getVerboseFlag(cmd)
	logger := log.NewRedactLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	cfg.Verbose = verbose

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.RemoteEndpoint, err = cmd.Flags().GetString("remote")
	if err != nil {
		return nil, err
	}

	cfg.Offline, err = cmd.Flags().GetBool("offline")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.AutoRephrase, err = cmd.Flags().GetBool("rephrase")
	if err != nil {
		return nil, err
	}

	cfg.NoWarnings, err = cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return nil, err
	}

	cfg.Sensitivity, err = cmd.Flags().GetString("sensitivity")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the configuration file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently proceed without one.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Apply(cf)
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.WriteModified, err = cmd.Flags().GetBool("write")
	if err != nil {
		return nil, err
	}

	cfg.OutDir, err = cmd.Flags().GetString("out-dir")
	if err != nil {
		return nil, err
	}

	// Always save counters and scan history, defaulting to the XDG data
	// directory when no explicit database directory was given.
	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}
	cfg.SaveToDB = true

	cfg.WatchSettings, err = cmd.Flags().GetBool("watch")
	if err != nil {
		return nil, err
	}

	cfg.SettingsFile, err = cmd.Flags().GetString("settings-file")
	if err != nil {
		return nil, err
	}
	if cfg.SettingsFile == "" {
		cfg.SettingsFile = filepath.Join(config.XDGConfigDir(), "settings.yaml")
	}

	// Get positional arguments (pages to scan)
	cfg.Inputs = args

	return cfg, nil
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting scan",
		"inputs", cfg.Inputs,
		"offline", cfg.Offline,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *store.DB
	if cfg.SaveToDB {
		var err error
		db, err = store.Open(cfg.DBDir, store.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	engineOpts := buildEngineOptions(cfg, db, logger)

	// Scan multiple inputs concurrently; the report output is serialized
	// so interleaved pages never corrupt each other on stdout.
	if len(cfg.Inputs) > 1 {
		return runParallelScan(ctx, cfg, engineOpts, db, logger)
	}

	return scanInput(ctx, cfg, cfg.Inputs[0], engineOpts, db, logger, &sync.Mutex{})
}

// buildEngineOptions assembles the engine options shared by every input:
// logger, settings, heuristics, statistics sink, and the remote client
// unless running offline.
func buildEngineOptions(cfg *config.Config, db *store.DB, logger *slog.Logger) []scanner.Option {
	opts := []scanner.Option{
		scanner.WithLogger(logger),
		scanner.WithSettings(cfg.Settings()),
		scanner.WithClassifier(buildClassifier(cfg)),
		scanner.WithRephraser(buildRephraser(cfg)),
	}

	if db != nil {
		opts = append(opts, scanner.WithStats(db))
	}

	if !cfg.Offline {
		client := remote.NewClient(cfg.RemoteEndpoint,
			remote.WithTimeout(cfg.Timeout),
			remote.WithLogger(logger),
		)
		opts = append(opts, scanner.WithRemote(client))
	}

	if cfg.Overrides != nil && len(cfg.Overrides.Heuristics.SuspiciousTokens) > 0 {
		opts = append(opts, scanner.WithSuspiciousTokens(cfg.Overrides.Heuristics.SuspiciousTokens))
	}

	return opts
}

// buildClassifier creates the fallback classifier, applying any term
// lists from the configuration file.
func buildClassifier(cfg *config.Config) *heuristic.Classifier {
	var opts []heuristic.ClassifierOption
	if cfg.Overrides != nil {
		for name, terms := range cfg.Overrides.Heuristics.Terms {
			opts = append(opts, heuristic.WithTerms(model.ParseCategory(name), terms))
		}
	}
	return heuristic.NewClassifier(opts...)
}

// buildRephraser creates the fallback rephraser, applying any
// replacement table from the configuration file.
func buildRephraser(cfg *config.Config) *heuristic.Rephraser {
	var opts []heuristic.RephraserOption
	if cfg.Overrides != nil && len(cfg.Overrides.Heuristics.Replacements) > 0 {
		opts = append(opts, heuristic.WithReplacements(cfg.Overrides.Heuristics.Replacements))
	}
	return heuristic.NewRephraser(opts...)
}

// runParallelScan scans multiple inputs concurrently.
func runParallelScan(ctx context.Context, cfg *config.Config, engineOpts []scanner.Option, db *store.DB, logger *slog.Logger) error {
	fmt.Printf("Scanning %d pages (concurrency: %d)...\n\n", len(cfg.Inputs), scanConcurrency)
	startTime := time.Now()

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)

	for _, input := range cfg.Inputs {
		g.Go(func() error {
			return scanInput(ctx, cfg, input, engineOpts, db, logger, &mu)
		})
	}

	err := g.Wait()
	elapsed := time.Since(startTime)
	fmt.Printf("\nScan of %d pages completed in %s\n", len(cfg.Inputs), elapsed.Round(time.Millisecond))

	return err
}

// scanInput loads one page, runs the moderation engine over it, and
// emits the report, the database row, and the moderated HTML.
func scanInput(ctx context.Context, cfg *config.Config, input string, engineOpts []scanner.Option, db *store.DB, logger *slog.Logger, mu *sync.Mutex) error {
	doc, err := loadDocument(ctx, cfg, input)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", input, err)
	}

	eng := scanner.New(doc, engineOpts...)

	startTime := time.Now()
	if err := eng.Run(ctx); err != nil {
		return fmt.Errorf("scan failed for %s: %w", input, err)
	}
	eng.Wait()
	elapsed := time.Since(startTime)

	pageReport := eng.Report(input)

	mu.Lock()

	fmt.Printf("Scanned %s in %s\n\n", input, elapsed.Round(time.Millisecond))

	// Generate and output report
	if err := outputReport(cfg, pageReport); err != nil {
		logger.Error("report failed", "input", input, "error", err)
	}

	// Save to database if enabled
	if err := saveScanReport(ctx, db, pageReport, logger); err != nil {
		logger.Error("failed to save scan report", "input", input, "error", err)
	}

	// Write the moderated HTML if requested
	if cfg.WriteModified {
		if err := writeModifiedHTML(cfg, input, doc); err != nil {
			logger.Error("failed to write moderated HTML", "input", input, "error", err)
		}
	}

	mu.Unlock()

	// Watch mode keeps the page alive, following settings file changes
	// until interrupted. Validation restricts it to a single input.
	if cfg.WatchSettings {
		return watchSettings(ctx, cfg, eng, logger)
	}

	return nil
}

// watchSettings blocks on the runtime settings file, applying each
// change to the engine until the scan context is cancelled. Cancellation
// is the normal shutdown path, not an error.
func watchSettings(ctx context.Context, cfg *config.Config, eng *scanner.Engine, logger *slog.Logger) error {
	logger.Info("watching settings file", "path", cfg.SettingsFile)
	fileSettings := store.NewFileSettings(cfg.SettingsFile, store.WithSettingsLogger(logger))
	err := fileSettings.Watch(ctx, func(s model.Settings) {
		eng.ApplySettings(s)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadDocument loads an input page: "-" reads standard input, http(s)
// URLs are fetched with the configured timeout and body limit, and
// anything else is treated as a local file path.
func loadDocument(ctx context.Context, cfg *config.Config, input string) (*goquery.Document, error) {
	switch {
	case input == "-":
		return dom.Load(os.Stdin)
	case strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://"):
		client := &http.Client{Timeout: cfg.Timeout}
		return dom.Fetch(ctx, client, input, cfg.MaxBodySize)
	default:
		f, err := os.Open(input) //nolint:gosec // User-provided input path is intentional
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return dom.Load(f)
	}
}

// outputReport outputs the scan report in the requested format.
func outputReport(cfg *config.Config, pageReport *model.PageReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600).
		// Reports carry excerpts of flagged page text that should only be
		// readable by the owner.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full report with version envelope)
	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(pageReport)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(pageReport)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(pageReport)
	return err
}

// writeModifiedHTML serializes the moderated document. File inputs get
// a sibling <name>.moderated.html (or the same name under --out-dir);
// stdin and URL inputs require --out-dir or fall back to stdout.
func writeModifiedHTML(cfg *config.Config, input string, doc *goquery.Document) error {
	html, err := doc.Html()
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	dest := modifiedOutputPath(cfg, input)
	if dest == "" {
		_, err := fmt.Fprintln(os.Stdout, html)
		return err
	}

	if dir := filepath.Dir(dest); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(dest, []byte(html), 0600); err != nil {
		return fmt.Errorf("failed to write moderated HTML: %w", err)
	}

	fmt.Printf("Moderated HTML written to %s\n", dest)
	return nil
}

// modifiedOutputPath returns the destination path for the moderated
// HTML, or empty string when the result should go to stdout.
func modifiedOutputPath(cfg *config.Config, input string) string {
	if input == "-" || strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		if cfg.OutDir == "" {
			return ""
		}
		return filepath.Join(cfg.OutDir, sanitizeFileName(input)+".moderated.html")
	}

	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".moderated.html"
	if cfg.OutDir != "" {
		return filepath.Join(cfg.OutDir, name)
	}
	return filepath.Join(filepath.Dir(input), name)
}

// sanitizeFileName turns a URL or stdin marker into a usable file name.
func sanitizeFileName(input string) string {
	if input == "-" {
		return "stdin"
	}
	name := strings.TrimPrefix(strings.TrimPrefix(input, "https://"), "http://")
	replacer := strings.NewReplacer("/", "_", ":", "_", "?", "_", "&", "_", "=", "_")
	return replacer.Replace(strings.Trim(name, "/"))
}

// saveScanReport saves the scan report to the database if enabled.
// If db is nil, this function is a no-op.
func saveScanReport(ctx context.Context, db *store.DB, pageReport *model.PageReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	if err := db.SaveScan(ctx, pageReport); err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}

	logger.Info("scan report saved to database", "source", pageReport.Source)
	return nil
}
