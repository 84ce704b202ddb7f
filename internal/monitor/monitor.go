package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/leakwatch/internal/diff"
	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/notify"
	"github.com/nao1215/leakwatch/internal/provider"
	"github.com/nao1215/leakwatch/internal/registry"
)

// DefaultConcurrency is the number of query units processed in parallel.
// The provider client throttles globally, so a small limit is enough to
// overlap network waits without hammering the API.
const DefaultConcurrency = 3

// SnapshotStore persists the latest snapshot per query.
// *database.LeakDB satisfies it.
type SnapshotStore interface {
	// GetSnapshot returns the stored snapshot for the query key, or
	// (nil, nil) when no snapshot exists yet.
	GetSnapshot(ctx context.Context, queryKey string) (*model.Snapshot, error)

	// PutSnapshot replaces the stored snapshot for its query key.
	PutSnapshot(ctx context.Context, snapshot *model.Snapshot) error
}

// QueryReport records the outcome of one query unit.
type QueryReport struct {
	// QueryKey identifies the tracked entity.
	QueryKey string `json:"query_key"`
	// FirstRun is true when no previous snapshot existed.
	FirstRun bool `json:"first_run"`
	// RowsFetched is the number of result rows the provider returned.
	RowsFetched int `json:"rows_fetched"`
	// Appeared, Persisted, and Disappeared are the diff bucket sizes.
	Appeared    int `json:"appeared"`
	Persisted   int `json:"persisted"`
	Disappeared int `json:"disappeared"`
	// Created, Resurrected, and Deleted are the registry transitions.
	Created     int `json:"created"`
	Resurrected int `json:"resurrected"`
	Deleted     int `json:"deleted"`
	// Duration is the wall time of the whole unit.
	Duration time.Duration `json:"duration"`
}

// RunReport summarizes one monitoring run.
type RunReport struct {
	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Queries holds the per-query outcomes for units that completed.
	Queries map[string]*QueryReport `json:"queries"`

	// Errors maps the query key of each failed unit to its error kind.
	Errors map[string]ErrorKind `json:"errors,omitempty"`

	// Notified is the number of entries handed to the notifier.
	Notified int `json:"notified"`
}

// Succeeded reports whether every query unit completed.
func (r *RunReport) Succeeded() bool {
	return len(r.Errors) == 0
}

// Monitor executes monitoring runs over a fixed set of collaborators.
type Monitor struct {
	searcher  provider.Searcher
	snapshots SnapshotStore
	registry  *registry.Registry
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger

	concurrency int
	now         func() time.Time

	// running guards against overlapping runs on the same Monitor.
	running atomic.Bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithNotifier sets the notifier for change batches. Defaults to a no-op.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Monitor) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithMetrics sets the Prometheus instruments to update during runs.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) {
		m.metrics = mt
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithConcurrency sets the number of query units processed in parallel.
func WithConcurrency(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithClock sets the clock used for snapshot timestamps. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a Monitor.
func New(searcher provider.Searcher, snapshots SnapshotStore, reg *registry.Registry, opts ...Option) *Monitor {
	m := &Monitor{
		searcher:    searcher,
		snapshots:   snapshots,
		registry:    reg,
		notifier:    notify.Nop{},
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunOnce executes one monitoring run over the given queries and returns
// the run report. Query units run concurrently up to the configured limit;
// a failing unit is recorded in the report and never aborts its siblings.
// After all units finish, one aggregated notification batch is delivered
// best effort.
//
// Only one run may execute at a time per Monitor. A second concurrent call
// returns ErrRunInProgress immediately.
func (m *Monitor) RunOnce(ctx context.Context, queries []model.Query) (*RunReport, error) {
	if !m.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer m.running.Store(false)

	if m.metrics != nil {
		m.metrics.InProgress.Set(1)
		defer m.metrics.InProgress.Set(0)
	}

	report := &RunReport{
		StartedAt: m.now(),
		Queries:   make(map[string]*QueryReport),
		Errors:    make(map[string]ErrorKind),
	}
	queries = dedupeQueries(queries)
	m.logger.InfoContext(ctx, "monitoring run started", "queries", len(queries))

	var (
		mu          sync.Mutex
		notifyBatch []*model.LeakEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for _, query := range queries {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			qr, batch, err := m.runQuery(gctx, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				kind := classifyError(err)
				report.Errors[query.Key()] = kind
				if m.metrics != nil {
					m.metrics.IncrementError(kind.String())
				}
				m.logger.WarnContext(gctx, "query unit failed",
					"query", query.Key(),
					"kind", kind.String(),
					"error", err,
				)
				// Recorded in the report; keep the sibling units running.
				return nil
			}
			report.Queries[query.Key()] = qr
			notifyBatch = append(notifyBatch, batch...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("monitoring run cancelled: %w", err)
	}

	report.Notified = len(notifyBatch)
	if len(notifyBatch) > 0 {
		if err := m.notifier.Notify(ctx, notifyBatch); err != nil {
			// Notification is best effort and never fails the run.
			m.logger.WarnContext(ctx, "notification failed", "error", err)
		}
	}

	report.FinishedAt = m.now()
	if m.metrics != nil {
		m.metrics.RunsTotal.Inc()
		m.metrics.LastRunTimestamp.Set(float64(report.FinishedAt.Unix()))
		if report.Succeeded() {
			m.metrics.LastRunSuccess.Set(1)
		} else {
			m.metrics.LastRunSuccess.Set(0)
		}
	}
	m.logger.InfoContext(ctx, "monitoring run finished",
		"queries", len(queries),
		"failed", len(report.Errors),
		"notified", report.Notified,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

// runQuery executes one query unit: fetch, diff, apply, persist. The
// snapshot is written only after the registry apply committed, so a crash
// between the two replays the same diff on the next run instead of losing
// transitions.
func (m *Monitor) runQuery(ctx context.Context, query model.Query) (*QueryReport, []*model.LeakEntry, error) {
	start := m.now()

	results, err := m.searcher.Search(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("search %s: %w", query.Key(), err)
	}
	if m.metrics != nil {
		m.metrics.AddRowsFetched(len(results))
	}

	current := model.NewSnapshot(query.Key(), m.now(), results)
	previous, err := m.snapshots.GetSnapshot(ctx, query.Key())
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot %s: %w", query.Key(), err)
	}

	d := diff.Compute(previous, current)
	update, err := m.registry.Apply(ctx, query, d, current)
	if err != nil {
		return nil, nil, fmt.Errorf("apply diff %s: %w", query.Key(), err)
	}

	if err := m.snapshots.PutSnapshot(ctx, current); err != nil {
		return nil, nil, fmt.Errorf("store snapshot %s: %w", query.Key(), err)
	}

	duration := m.now().Sub(start)
	if m.metrics != nil {
		m.metrics.ObserveQueryDuration(duration)
		m.metrics.AddNewLeaks(countNewLeaks(update.NotifyBatch))
	}

	return &QueryReport{
		QueryKey:    query.Key(),
		FirstRun:    d.FirstRun,
		RowsFetched: len(results),
		Appeared:    len(d.Appeared),
		Persisted:   len(d.Persisted),
		Disappeared: len(d.Disappeared),
		Created:     len(update.Created),
		Resurrected: len(update.Resurrected),
		Deleted:     len(update.TransitionedToDeleted),
		Duration:    duration,
	}, update.NotifyBatch, nil
}

// countNewLeaks counts the notification worthy entries that are live,
// i.e. fresh creations and resurrections but not deletions.
func countNewLeaks(batch []*model.LeakEntry) int {
	n := 0
	for _, entry := range batch {
		if entry.Status == model.LeakStatusNew {
			n++
		}
	}
	return n
}

// dedupeQueries drops queries that normalize to an already seen key,
// keeping the first occurrence. Duplicate keys would contend on the same
// per-entity lock for no benefit.
func dedupeQueries(queries []model.Query) []model.Query {
	seen := make(map[string]bool, len(queries))
	out := make([]model.Query, 0, len(queries))
	for _, query := range queries {
		key := query.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, query)
	}
	return out
}
