package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/log"
	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/monitor"
	"github.com/nao1215/leakwatch/internal/notify"
	"github.com/nao1215/leakwatch/internal/provider"
	"github.com/nao1215/leakwatch/internal/registry"
)

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

// loadConfig resolves and loads the configuration file named by the
// --config flag. An explicitly specified file must exist; otherwise a
// missing file falls back to defaults plus environment variables.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	explicit := configPath != ""
	found := config.FindConfigFile(configPath)
	if found == "" {
		if explicit {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		cfg := config.NewConfig()
		cfg.Provider.APIKey = os.Getenv("LEAKWATCH_API_KEY")
		cfg.Verbose = getVerboseFlag(cmd)
		return cfg, nil
	}

	cfg, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// setupLogger creates the masking structured logger used by every command.
// Breach rows flow through log attributes, so the plain slog handlers are
// never used directly.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// buildMonitor assembles the run pipeline: provider client, registry,
// notifier, and orchestrator, all sharing the given database and logger.
func buildMonitor(cfg *config.Config, db *database.LeakDB, logger *slog.Logger, mt *metrics.Metrics) (*monitor.Monitor, error) {
	clientOpts := []provider.ClientOption{provider.WithLogger(logger)}
	if mt != nil {
		clientOpts = append(clientOpts, provider.WithRateLimitedHook(mt.IncrementRateLimited))
	}
	client, err := provider.NewClient(cfg.Provider.ClientConfig(), clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}

	reg := registry.New(db, registry.WithLogger(logger))

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Email.Enabled() {
		notifier = notify.NewMailer(cfg.Email, notify.WithLogger(logger))
	}

	opts := []monitor.Option{
		monitor.WithLogger(logger),
		monitor.WithNotifier(notifier),
		monitor.WithConcurrency(cfg.Concurrency),
	}
	if mt != nil {
		opts = append(opts, monitor.WithMetrics(mt))
	}
	return monitor.New(client, db, reg, opts...), nil
}
