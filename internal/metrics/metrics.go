package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus instrument exposed by the monitor.
type Metrics struct {
	// RunsTotal counts completed monitoring runs, successful or not.
	RunsTotal prometheus.Counter

	// QueryDuration observes the wall time of one query unit, from the
	// provider call through the registry apply.
	QueryDuration prometheus.Histogram

	// RowsFetchedTotal counts result rows received from the provider.
	RowsFetchedTotal prometheus.Counter

	// NewLeaksTotal counts notification worthy new and resurrected
	// entries across all runs.
	NewLeaksTotal prometheus.Counter

	// ErrorsTotal counts per query failures by error kind.
	ErrorsTotal *prometheus.CounterVec

	// RateLimitedTotal counts 429 responses from the provider.
	RateLimitedTotal prometheus.Counter

	// LastRunTimestamp is the epoch time of the last completed run.
	LastRunTimestamp prometheus.Gauge

	// LastRunSuccess is 1 when the last run finished without errors.
	LastRunSuccess prometheus.Gauge

	// InProgress is 1 while a run is executing.
	InProgress prometheus.Gauge
}

// New registers all instruments on the default registry.
func New() *Metrics {
	return newWith(promauto.With(prometheus.DefaultRegisterer))
}

// NewForRegistry registers all instruments on the given registry. Tests
// use this to avoid duplicate registration panics.
func NewForRegistry(reg prometheus.Registerer) *Metrics {
	return newWith(promauto.With(reg))
}

func newWith(factory promauto.Factory) *Metrics {
	return &Metrics{
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "leakwatch_runs_total",
			Help: "Total number of monitoring runs",
		}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "leakwatch_query_duration_seconds",
			Help:    "Duration of one query unit including provider fetch and registry apply",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		RowsFetchedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "leakwatch_rows_fetched_total",
			Help: "Total result rows received from the search provider",
		}),
		NewLeaksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "leakwatch_new_leaks_total",
			Help: "Total notification worthy new leak entries",
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leakwatch_errors_total",
			Help: "Total per query failures by kind",
		}, []string{"kind"}),
		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "leakwatch_rate_limited_total",
			Help: "Total 429 responses from the search provider",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leakwatch_last_run_timestamp",
			Help: "Epoch timestamp of the last completed run",
		}),
		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leakwatch_last_run_success",
			Help: "1 if the last run finished without errors, 0 otherwise",
		}),
		InProgress: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leakwatch_in_progress",
			Help: "1 while a run is executing",
		}),
	}
}

// ObserveQueryDuration records the wall time of one query unit.
func (m *Metrics) ObserveQueryDuration(d time.Duration) {
	if m != nil {
		m.QueryDuration.Observe(d.Seconds())
	}
}

// IncrementError records a per query failure by kind.
func (m *Metrics) IncrementError(kind string) {
	if m != nil {
		m.ErrorsTotal.WithLabelValues(kind).Inc()
	}
}

// AddRowsFetched records result rows received from the provider.
func (m *Metrics) AddRowsFetched(n int) {
	if m != nil && n > 0 {
		m.RowsFetchedTotal.Add(float64(n))
	}
}

// AddNewLeaks records notification worthy new entries.
func (m *Metrics) AddNewLeaks(n int) {
	if m != nil && n > 0 {
		m.NewLeaksTotal.Add(float64(n))
	}
}

// IncrementRateLimited records one 429 response from the provider.
func (m *Metrics) IncrementRateLimited() {
	if m != nil {
		m.RateLimitedTotal.Inc()
	}
}
