package report

import (
	"io"
	"sort"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

// LeakReport is the renderable view of the leak registry at one point in
// time.
type LeakReport struct {
	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time `json:"generated_at"`

	// Counts holds entry counts per lifecycle status.
	Counts map[model.LeakStatus]int `json:"counts"`

	// Entries lists the leak entries included in the report.
	Entries []*model.LeakEntry `json:"entries"`
}

// NewLeakReport assembles a report over the given entries.
func NewLeakReport(entries []*model.LeakEntry, counts map[model.LeakStatus]int, now time.Time) *LeakReport {
	return &LeakReport{
		GeneratedAt: now,
		Counts:      counts,
		Entries:     entries,
	}
}

// Total returns the number of entries across all statuses in Counts.
func (r *LeakReport) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// statusOrder is the fixed rendering order for lifecycle states.
var statusOrder = []model.LeakStatus{
	model.LeakStatusNew,
	model.LeakStatusExisting,
	model.LeakStatusDeleted,
}

// sortedDetailKeys returns the masked detail keys in stable order.
func sortedDetailKeys(details map[string]string) []string {
	keys := make([]string, 0, len(details))
	for key := range details {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Writer defines the interface for report output. Implementations write
// leak reports in various formats, so terminal, file, and automation
// destinations share the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *LeakReport) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
