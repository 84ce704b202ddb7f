package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/leakwatch/internal/model"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown. This format
// is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *LeakReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeEntries(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *LeakReport) {
	md.H1("Leak Exposure Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Entries", strconv.Itoa(report.Total())},
		},
	})
	md.PlainText("")
}

// writeSummary writes the status summary section with a pie chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *LeakReport) {
	md.H2("Status Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(statusOrder))
	for _, status := range statusOrder {
		rows = append(rows, []string{status.String(), strconv.Itoa(report.Counts[status])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, report)
	w.writePieChart(md, report)
}

// writeAlert writes an alert based on the new-entry count.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *LeakReport) {
	newCount := report.Counts[model.LeakStatusNew]
	switch {
	case newCount > 0:
		md.Warningf("%d new exposure(s) detected. Review the entries below.", newCount)
	case report.Total() == 0:
		md.Tip("No exposures on record.")
	default:
		md.Note("No new exposures since the last run.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *LeakReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Entry Status Distribution"),
		piechart.WithShowData(true),
	)

	for _, status := range statusOrder {
		if n := report.Counts[status]; n > 0 {
			chart.LabelAndIntValue(status.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeEntries writes the entry table with masked details.
func (w *MarkdownWriter) writeEntries(md *markdown.Markdown, report *LeakReport) {
	md.H2("Entries")
	md.PlainText("")

	if len(report.Entries) == 0 {
		md.PlainText("No entries match the filter.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Entries))
	for _, entry := range report.Entries {
		rows = append(rows, []string{
			entry.Status.String(),
			entry.EntityType.String(),
			"`" + entry.Entity + "`",
			entry.Summary,
			entry.FoundAt.Format("2006-01-02"),
			entry.LastSeenAt.Format("2006-01-02"),
			maskedDetailsCell(entry),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Type", "Entity", "Summary", "Found", "Last Seen", "Details"},
		Rows:   rows,
	})
	md.PlainText("")
}

// maskedDetailsCell renders the masked details as one table cell.
func maskedDetailsCell(entry *model.LeakEntry) string {
	masked := entry.MaskedDetails()
	parts := make([]string, 0, len(masked))
	for _, key := range sortedDetailKeys(masked) {
		if masked[key] == "" {
			continue
		}
		parts = append(parts, key+"="+masked[key])
	}
	return strings.Join(parts, ", ")
}
