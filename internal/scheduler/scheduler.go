package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/monitor"
)

// Runner executes one monitoring run. *monitor.Monitor satisfies it.
type Runner interface {
	RunOnce(ctx context.Context, queries []model.Query) (*monitor.RunReport, error)
}

// Scheduler triggers monitoring runs on an interval and on demand.
type Scheduler struct {
	runner      Runner
	queriesFile string
	interval    time.Duration
	trigger     <-chan struct{}
	logger      *slog.Logger
}

// New creates a Scheduler. The trigger channel carries manual run
// requests from the admin API; it may be nil when no API is running.
func New(runner Runner, queriesFile string, interval time.Duration, trigger <-chan struct{}, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:      runner,
		queriesFile: queriesFile,
		interval:    interval,
		trigger:     trigger,
		logger:      logger,
	}
}

// Start blocks until the context is cancelled, executing one run
// immediately and then on every tick or manual trigger. Run failures are
// logged and never stop the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.runAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runAndLog(ctx)
		case <-s.trigger:
			s.logger.InfoContext(ctx, "manual run triggered")
			s.runAndLog(ctx)
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		}
	}
}

// runAndLog loads the query registry and executes one run. An overlapping
// run request is dropped; the running pass already covers it.
func (s *Scheduler) runAndLog(ctx context.Context) {
	queries, err := config.LoadQueries(s.queriesFile)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load query registry", "file", s.queriesFile, "error", err)
		return
	}

	report, err := s.runner.RunOnce(ctx, queries)
	if err != nil {
		if errors.Is(err, monitor.ErrRunInProgress) {
			s.logger.WarnContext(ctx, "run skipped: previous run still in progress")
			return
		}
		s.logger.ErrorContext(ctx, "monitoring run failed", "error", err)
		return
	}
	if !report.Succeeded() {
		s.logger.WarnContext(ctx, "monitoring run finished with failures", "failed", len(report.Errors))
	}
}
