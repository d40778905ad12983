package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Wtfthisman1/ParserLinks/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
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
func (w *MarkdownWriter) Write(report *model.ProcessingReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeTotals(md, report)
	w.writeHostings(md, report)
	w.writeRecent(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with generation information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ProcessingReport) {
	md.H1("ParserLinks Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Hostings", strconv.Itoa(len(report.Hostings))},
			{"Links Processed", strconv.Itoa(report.Totals().Total)},
		},
	})
	md.PlainText("")
}

// writeTotals writes the overall status breakdown.
func (w *MarkdownWriter) writeTotals(md *markdown.Markdown, report *model.ProcessingReport) {
	md.H2("Status Summary")
	md.PlainText("")

	total := report.Totals()
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"🟢 Downloaded", strconv.Itoa(total.Downloaded)},
			{"⚪ Empty", strconv.Itoa(total.Empty)},
			{"🔵 Skipped", strconv.Itoa(total.Skipped)},
			{"🔴 Errors", strconv.Itoa(total.Errors)},
			{"**Total**", "**" + strconv.Itoa(total.Total) + "**"},
		},
	})
	md.PlainText("")

	if report.HasResults() {
		w.writePieChart(md, total)
	}

	w.writeAlert(md, total)
}

// writePieChart writes a mermaid pie chart for the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, total model.HostingStats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Link Status Distribution"),
		piechart.WithShowData(true),
	)

	if total.Downloaded > 0 {
		chart.LabelAndIntValue("Downloaded", uint64(total.Downloaded))
	}
	if total.Empty > 0 {
		chart.LabelAndIntValue("Empty", uint64(total.Empty))
	}
	if total.Skipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(total.Skipped))
	}
	if total.Errors > 0 {
		chart.LabelAndIntValue("Errors", uint64(total.Errors))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the breakdown.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, total model.HostingStats) {
	switch {
	case total.Total == 0:
		md.Note("No links have been processed yet.")
	case total.Errors > total.Total/2:
		md.Warningf(
			"More than half of the processed links failed (%d of %d). Check connectivity and rate limits.",
			total.Errors, total.Total,
		)
	case total.Downloaded > 0:
		md.Tip(fmt.Sprintf("%d image(s) downloaded successfully.", total.Downloaded))
	default:
		md.Note("No images found so far. Consider a different generation strategy.")
	}
	md.PlainText("")
}

// writeHostings writes the per-hosting breakdown section.
func (w *MarkdownWriter) writeHostings(md *markdown.Markdown, report *model.ProcessingReport) {
	md.H2("Per-Hosting Breakdown")
	md.PlainText("")

	if len(report.Hostings) == 0 {
		md.PlainText("No hostings recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Hostings))
	for _, name := range report.HostingNames() {
		stats := report.Hostings[name]
		rows = append(rows, []string{
			name,
			strconv.Itoa(stats.Downloaded),
			strconv.Itoa(stats.Empty),
			strconv.Itoa(stats.Skipped),
			strconv.Itoa(stats.Errors),
			strconv.Itoa(stats.Total),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Hosting", "Downloaded", "Empty", "Skipped", "Errors", "Total"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeRecent writes a table of the most recently processed records.
func (w *MarkdownWriter) writeRecent(md *markdown.Markdown, report *model.ProcessingReport) {
	if len(report.Recent) == 0 {
		return
	}

	md.H2("Recent Results")
	md.PlainText("")

	rows := make([][]string, len(report.Recent))
	for i, result := range report.Recent {
		detail := result.FilePath
		if detail == "" {
			detail = result.ErrorMessage
		}
		if detail == "" {
			detail = "-"
		}

		rows[i] = []string{
			truncateString(result.URL, 50),
			string(result.Status),
			truncateString(detail, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [ParserLinks](https://github.com/Wtfthisman1/ParserLinks)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
