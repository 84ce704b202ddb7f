package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/registry"
	"github.com/nao1215/leakwatch/internal/report"
)

// NewLeaksCmd creates the leaks command.
func NewLeaksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaks",
		Short: "List the recorded leak entries",
		Long: `Leaks lists the durable leak registry. Entries can be filtered by
lifecycle status and by a case-insensitive substring matched over the
entity, status, summary, and source fields. Sensitive detail values are
always masked in the output.

Examples:
  # List everything
  leakwatch leaks

  # Only entries that disappeared from the provider results
  leakwatch leaks --status deleted

  # Entries mentioning a breach corpus
  leakwatch leaks --filter "collection"

  # JSON output for scripting
  leakwatch leaks --json

  # Markdown report written to a file
  leakwatch leaks --markdown -o report.md`,
		Args: cobra.NoArgs,
		RunE: runLeaksCmd,
	}

	cmd.Flags().StringP("status", "s", "",
		"Filter by lifecycle status: new, existing, or deleted")
	cmd.Flags().StringP("filter", "f", "",
		"Case-insensitive substring filter")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write output to the specified file path")
	cmd.Flags().BoolP("details", "d", false,
		"Include masked detail lines in text output")

	return cmd
}

// runLeaksCmd executes the leaks command.
func runLeaksCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	filter, err := buildLeakFilter(cmd)
	if err != nil {
		return err
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOut && markdownOut {
		return fmt.Errorf("--json and --markdown cannot be used together")
	}

	db, err := database.Open(cfg.Database.Dir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database (run 'leakwatch run' first?): %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	reg := registry.New(db, registry.WithLogger(logger))
	entries, err := reg.List(ctx, filter)
	if err != nil {
		return err
	}
	counts, err := reg.Counts(ctx)
	if err != nil {
		return err
	}

	output, cleanup, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	leakReport := report.NewLeakReport(entries, counts, time.Now())
	writer, err := buildReportWriter(cmd, output, jsonOut, markdownOut)
	if err != nil {
		return err
	}
	_, err = writer.Write(leakReport)
	return err
}

// buildLeakFilter parses the status and substring flags.
func buildLeakFilter(cmd *cobra.Command) (registry.Filter, error) {
	var filter registry.Filter

	rawStatus, err := cmd.Flags().GetString("status")
	if err != nil {
		return filter, err
	}
	if rawStatus != "" {
		status := model.LeakStatus(rawStatus)
		if !status.IsValid() {
			return filter, fmt.Errorf("unknown status %q (want new, existing, or deleted)", rawStatus)
		}
		filter.Status = status
	}

	filter.Term, err = cmd.Flags().GetString("filter")
	if err != nil {
		return filter, err
	}
	return filter, nil
}

// buildReportWriter picks the writer for the requested format.
func buildReportWriter(cmd *cobra.Command, output *os.File, jsonOut, markdownOut bool) (report.Writer, error) {
	switch {
	case jsonOut:
		return report.NewJSONWriter(output, report.WithPrettyPrint()), nil
	case markdownOut:
		return report.NewMarkdownWriter(output), nil
	default:
		details, err := cmd.Flags().GetBool("details")
		if err != nil {
			return nil, err
		}
		return report.NewSimpleWriter(output, report.WithDetails(details)), nil
	}
}

// openOutput resolves the --output flag to a file, defaulting to stdout.
// Reports may contain masked breach context, so files are created 0600.
func openOutput(cmd *cobra.Command) (*os.File, func(), error) {
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
