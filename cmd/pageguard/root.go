// Package main provides the entry point for the PageGuard CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for PageGuard.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pageguard",
		Short: "Content moderation overlay for HTML pages",
		Long: `PageGuard scans HTML pages for inappropriate, offensive, and harmful
content. Flagged passages receive a warning badge or are rewritten in
place, and every change is reversible.

Verdicts come from a remote moderation service when one is reachable;
local keyword heuristics take over when it is not. Use --offline to
skip the service entirely.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
