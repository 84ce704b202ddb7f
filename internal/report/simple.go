package report

import (
	"fmt"
	"io"
	"strings"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Plain ASCII formatting keeps the output pipeable to files and other
// tools.
type SimpleWriter struct {
	baseWriter

	// showDetails includes the masked detail lines per entry.
	showDetails bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithDetails enables the masked detail lines per entry.
func WithDetails(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showDetails = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *LeakReport) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Leak Report - %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")

	sb.WriteString("Status summary:\n")
	for _, status := range statusOrder {
		fmt.Fprintf(&sb, "  %-10s %d\n", status.String(), report.Counts[status])
	}
	fmt.Fprintf(&sb, "  %-10s %d\n\n", "total", report.Total())

	if len(report.Entries) == 0 {
		sb.WriteString("No entries match the filter.\n")
		return io.WriteString(w.output, sb.String())
	}

	for _, entry := range report.Entries {
		fmt.Fprintf(&sb, "[%s] %s %s\n", strings.ToUpper(entry.Status.String()), entry.EntityType, entry.Entity)
		fmt.Fprintf(&sb, "  %s\n", entry.Summary)
		fmt.Fprintf(&sb, "  found: %s  last seen: %s\n",
			entry.FoundAt.Format("2006-01-02 15:04"),
			entry.LastSeenAt.Format("2006-01-02 15:04"),
		)
		if w.showDetails {
			masked := entry.MaskedDetails()
			for _, key := range sortedDetailKeys(masked) {
				fmt.Fprintf(&sb, "    %s: %s\n", key, masked[key])
			}
		}
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}
