package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Wtfthisman1/ParserLinks/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with aligned columns
// and clear section formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether hostings with no records are shown.
	showEmpty bool

	// verbose enables the recent-results section in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show hostings with no records.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with the recent-results section.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.ProcessingReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeTotals(&sb, report)
	w.writeHostings(&sb, report)
	if w.verbose {
		w.writeRecent(&sb, report)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with generation information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ProcessingReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       PARSERLINKS REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Hostings:  %d\n", len(report.Hostings)))
	sb.WriteString("\n")
}

// writeTotals writes the overall status breakdown.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, report *model.ProcessingReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TOTALS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	total := report.Totals()
	sb.WriteString(fmt.Sprintf("  DOWNLOADED: %d\n", total.Downloaded))
	sb.WriteString(fmt.Sprintf("  EMPTY:      %d\n", total.Empty))
	sb.WriteString(fmt.Sprintf("  SKIPPED:    %d\n", total.Skipped))
	sb.WriteString(fmt.Sprintf("  ERRORS:     %d\n", total.Errors))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:      %d links\n", total.Total))
	sb.WriteString("\n")
}

// writeHostings writes the per-hosting breakdown section.
func (w *SimpleWriter) writeHostings(sb *strings.Builder, report *model.ProcessingReport) {
	if !report.HasResults() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PER-HOSTING BREAKDOWN\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, name := range report.HostingNames() {
		stats := report.Hostings[name]
		if stats.Total == 0 && !w.showEmpty {
			continue
		}
		sb.WriteString(fmt.Sprintf("  [%s]\n", name))
		sb.WriteString(fmt.Sprintf("    downloaded: %d, empty: %d, skipped: %d, errors: %d (total %d)\n",
			stats.Downloaded, stats.Empty, stats.Skipped, stats.Errors, stats.Total))
	}
	sb.WriteString("\n")
}

// writeRecent writes the most recently processed records.
func (w *SimpleWriter) writeRecent(sb *strings.Builder, report *model.ProcessingReport) {
	if len(report.Recent) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECENT RESULTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, result := range report.Recent {
		sb.WriteString(fmt.Sprintf("  * %-12s %s\n", result.Status, result.URL))
		if result.FilePath != "" {
			sb.WriteString(fmt.Sprintf("    File: %s (%d bytes)\n", result.FilePath, result.FileSize))
		}
		if result.ErrorMessage != "" {
			sb.WriteString(fmt.Sprintf("    Detail: %s\n", result.ErrorMessage))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by ParserLinks\n")
	sb.WriteString("https://github.com/Wtfthisman1/ParserLinks\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
