package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/pageguard.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = ".pageguard"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new PageGuard configuration file",
		Long: `Initialize creates a new .pageguard configuration file in the current directory.

The generated file includes:
- Default moderation settings (warnings, auto-rephrase, sensitivity)
- The moderation service connection section
- Commented examples for customizing the local heuristics

Examples:
  # Create .pageguard in current directory
  pageguard init

  # Create config file at a specific path
  pageguard init -o myconfig.yaml

  # Force overwrite existing file
  pageguard init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/pageguard.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write configuration file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("Created configuration file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure moderation behavior such as:")
	fmt.Println("  - Sensitivity and auto-rephrase settings")
	fmt.Println("  - The moderation service endpoint")
	fmt.Println("  - Custom heuristic terms and replacements")

	return nil
}
