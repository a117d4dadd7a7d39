package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pageguard/pageguard/internal/config"
	"github.com/pageguard/pageguard/internal/log"
	"github.com/pageguard/pageguard/internal/service"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference moderation service",
		Long: `Serve starts an HTTP moderation service backed by the local keyword
heuristics. It exposes the same analyze and rephrase endpoints the scan
command talks to, which makes it useful for development and for running
PageGuard without an external classifier.

Endpoints:
  POST /analyze   classify a text passage
  POST /rephrase  rewrite a flagged passage
  GET  /healthz   liveness probe
  GET  /metrics   Prometheus metrics

Examples:
  # Listen on the default address
  pageguard serve

  # Listen on a specific address
  pageguard serve --addr 127.0.0.1:9000

  # Serve with heuristic overrides from a configuration file
  pageguard serve --config .pageguard`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultServeAddr,
		"Listen address for the moderation service")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pageguard in current or home directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	verbose := getVerboseFlag(cmd)
	logger := log.NewRedactLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	opts, err := serveOptions(configPath, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping service...")
		cancel()
	}()

	fmt.Printf("Moderation service listening on %s\n", addr)

	srv := service.NewServer(opts...)
	if err := srv.Run(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("moderation service failed: %w", err)
	}
	return nil
}

// serveOptions assembles the service options, loading any heuristic
// term and replacement overrides from the configuration file so the
// served verdicts match what a scan with the same file would apply.
func serveOptions(configPath string, logger *slog.Logger) ([]service.Option, error) {
	cfg := config.NewConfig()
	cfg.ConfigFilePath = configPath

	found := config.FindConfigFile(configPath)
	if found != "" {
		cf, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		cfg.Apply(cf)
	} else if configPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	return []service.Option{
		service.WithLogger(logger),
		service.WithClassifier(buildClassifier(cfg)),
		service.WithRephraser(buildRephraser(cfg)),
	}, nil
}
