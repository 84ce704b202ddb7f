// Package main provides the entry point for the leakwatch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for leakwatch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leakwatch",
		Short: "Leak exposure monitor for domains, emails, and keywords",
		Long: `Leakwatch polls a breach search provider for the entities you track,
diffs every poll against the last stored snapshot, and keeps a durable
registry of exposures with a new/existing/deleted lifecycle.

Run it once from cron with 'leakwatch run', or keep it resident with
'leakwatch serve' to get scheduled runs, an admin API, and Prometheus
metrics.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: leakwatch.yaml in current or XDG config directory)")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewLeaksCmd())
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
