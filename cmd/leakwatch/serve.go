package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/registry"
	"github.com/nao1215/leakwatch/internal/scheduler"
	"github.com/nao1215/leakwatch/internal/server"
)

// shutdownGrace bounds the graceful stop of the admin server.
const shutdownGrace = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitor as a resident daemon",
		Long: `Serve keeps the monitor resident. It executes a pass immediately, then
on every schedule interval, and exposes an admin HTTP API:

  GET  /api/queries   read the query registry
  PUT  /api/queries   replace the query registry atomically
  GET  /api/leaks     masked leak entries, filterable by status and substring
  POST /api/run-now   schedule an immediate pass
  GET  /healthz       liveness probe
  GET  /metrics       Prometheus metrics

Examples:
  # Run the daemon with the default configuration
  leakwatch serve

  # Run with an explicit configuration file
  leakwatch serve -c /etc/leakwatch/leakwatch.yaml`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}
	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
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

	db, err := database.Open(cfg.Database.Dir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database opened", "dir", cfg.Database.Dir)

	mt := metrics.New()
	mon, err := buildMonitor(cfg, db, logger, mt)
	if err != nil {
		return err
	}

	// One-slot trigger: run-now requests coalesce while a pass is pending.
	trigger := make(chan struct{}, 1)
	reg := registry.New(db, registry.WithLogger(logger))
	srv := server.New(cfg.Server.Addr, reg, cfg.QueriesFile, trigger, logger)
	sched := scheduler.New(mon, cfg.QueriesFile, cfg.Schedule.Interval.Std(), trigger, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		return sched.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("daemon stopped")
	return nil
}
