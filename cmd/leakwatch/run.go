package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/monitor"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one monitoring pass over the configured queries",
		Long: `Run executes a single monitoring pass and exits. For every query in
the registry it fetches the current provider results, diffs them against
the stored snapshot, updates the leak registry, and sends one aggregated
notification for the changes.

The first pass for a query seeds the registry without notifying, so a
fresh setup never fires an alert storm.

Examples:
  # Run once with the default configuration
  leakwatch run

  # Run with an explicit configuration file
  leakwatch run -c /etc/leakwatch/leakwatch.yaml

  # Run a single query without touching the registry file
  leakwatch run --query acme.com --type domain`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().StringP("query", "q", "",
		"Run only this query value instead of the registry file")
	cmd.Flags().StringP("type", "t", "",
		"Query type for --query: domain, keyword, email, or auto")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queries, err := resolveQueries(cmd, cfg)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Dir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	mon, err := buildMonitor(cfg, db, logger, nil)
	if err != nil {
		return err
	}

	report, err := mon.RunOnce(ctx, queries)
	if err != nil {
		return err
	}
	printRunReport(report)

	if !report.Succeeded() {
		return fmt.Errorf("%d of %d queries failed", len(report.Errors), len(report.Errors)+len(report.Queries))
	}
	return nil
}

// resolveQueries returns the query set for this pass: either the single
// --query flag or the whole registry file.
func resolveQueries(cmd *cobra.Command, cfg *config.Config) ([]model.Query, error) {
	value, err := cmd.Flags().GetString("query")
	if err != nil {
		return nil, err
	}
	if value == "" {
		queries, err := config.LoadQueries(cfg.QueriesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load query registry %s: %w", cfg.QueriesFile, err)
		}
		return queries, nil
	}

	rawType, err := cmd.Flags().GetString("type")
	if err != nil {
		return nil, err
	}
	queryType, err := model.ParseQueryType(rawType)
	if err != nil {
		return nil, fmt.Errorf("invalid --type %q: %w", rawType, err)
	}
	query, err := model.NewQuery(value, queryType)
	if err != nil {
		return nil, err
	}
	return []model.Query{query}, nil
}

// printRunReport prints a terminal summary of one run.
func printRunReport(report *monitor.RunReport) {
	fmt.Printf("Run finished in %s\n\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	keys := make([]string, 0, len(report.Queries))
	for key := range report.Queries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		qr := report.Queries[key]
		line := fmt.Sprintf("  %-40s rows=%-4d new=%-3d deleted=%-3d", key, qr.RowsFetched, qr.Created+qr.Resurrected, qr.Deleted)
		if qr.FirstRun {
			line += " (first run, alerts suppressed)"
		}
		fmt.Println(line)
	}

	if len(report.Errors) > 0 {
		fmt.Println()
		errKeys := make([]string, 0, len(report.Errors))
		for key := range report.Errors {
			errKeys = append(errKeys, key)
		}
		sort.Strings(errKeys)
		for _, key := range errKeys {
			fmt.Fprintf(os.Stderr, "  FAILED %-33s %s\n", key, report.Errors[key])
		}
	}

	if report.Notified > 0 {
		fmt.Printf("\n%d change(s) notified\n", report.Notified)
	}
}
