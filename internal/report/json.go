package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration and
// programmatic processing. Entry details are masked before encoding.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonEntry is the masked public shape of one entry.
type jsonEntry struct {
	ID         string            `json:"id"`
	EntityType string            `json:"entity_type"`
	Entity     string            `json:"entity"`
	Status     string            `json:"status"`
	FoundAt    time.Time         `json:"found_at"`
	LastSeenAt time.Time         `json:"last_seen_at"`
	Summary    string            `json:"summary"`
	Details    map[string]string `json:"details"`
}

// jsonReport is the encoded report shape.
type jsonReport struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Counts      map[model.LeakStatus]int `json:"counts"`
	Entries     []jsonEntry              `json:"entries"`
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *LeakReport) (int, error) {
	out := jsonReport{
		GeneratedAt: report.GeneratedAt,
		Counts:      report.Counts,
		Entries:     make([]jsonEntry, 0, len(report.Entries)),
	}
	for _, entry := range report.Entries {
		out.Entries = append(out.Entries, jsonEntry{
			ID:         entry.ID,
			EntityType: entry.EntityType.String(),
			Entity:     entry.Entity,
			Status:     entry.Status.String(),
			FoundAt:    entry.FoundAt,
			LastSeenAt: entry.LastSeenAt,
			Summary:    entry.Summary,
			Details:    entry.MaskedDetails(),
		})
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
