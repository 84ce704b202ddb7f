package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/leakwatch/internal/config"
)

//go:embed templates/leakwatch.yaml templates/queries.yaml
var configTemplates embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize leakwatch configuration files",
		Long: `Init creates a leakwatch.yaml configuration file and a queries.yaml
query registry in the current directory.

The generated files include:
- Provider, notification, schedule, and server settings with defaults
- Commented examples for every option
- Example query registry entries

Examples:
  # Create leakwatch.yaml and queries.yaml in the current directory
  leakwatch init

  # Create the files in a specific directory
  leakwatch init -o /etc/leakwatch

  # Force overwrite existing files
  leakwatch init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", ".",
		"Directory to create the configuration files in")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration files")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	files := map[string]string{
		"templates/leakwatch.yaml": filepath.Join(outputDir, config.DefaultConfigFile),
		"templates/queries.yaml":   filepath.Join(outputDir, config.DefaultQueriesFile),
	}
	for template, target := range files {
		if err := writeTemplate(template, target, force); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", target)
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set your provider API key (provider.api_key or LEAKWATCH_API_KEY)")
	fmt.Println("  2. Add the domains, emails, or keywords to track in queries.yaml")
	fmt.Println("  3. Run 'leakwatch run' for a one-shot pass or 'leakwatch serve' for the daemon")

	return nil
}

// writeTemplate copies one embedded template to the target path.
func writeTemplate(template, target string, force bool) error {
	if !force {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", target)
		}
	}

	content, err := configTemplates.ReadFile(template)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	if err := os.WriteFile(target, content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}
