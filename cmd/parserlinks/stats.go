package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
	"github.com/Wtfthisman1/ParserLinks/internal/database"
	"github.com/Wtfthisman1/ParserLinks/internal/model"
	"github.com/Wtfthisman1/ParserLinks/internal/report"
)

// defaultRecentLimit is how many recent records the report includes.
const defaultRecentLimit = 20

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report stored processing statistics",
		Long: `Stats reads the link store and reports the per-hosting breakdown of
processed URLs, plus the most recent results.

Examples:
  # Human-readable report on the terminal
  parserlinks stats

  # JSON report for tooling
  parserlinks stats --json

  # Markdown report written to a file
  parserlinks stats --markdown -o report.md`,
		RunE: runStatsCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().IntP("recent", "r", defaultRecentLimit,
		"Number of recent results to include (0 = none)")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite link store (default: XDG data directory)")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOut && markdownOut {
		return fmt.Errorf("--json and --markdown are mutually exclusive")
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	recentLimit, err := cmd.Flags().GetInt("recent")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// The store must already exist; stats never creates an empty one.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	processingReport, err := assembleReport(ctx, db, recentLimit)
	if err != nil {
		return err
	}

	output, cleanup, err := openReportOutput(cmd, outputPath)
	if err != nil {
		return err
	}
	defer cleanup()

	writer := selectWriter(output, jsonOut, markdownOut)
	_, err = writer.Write(processingReport)
	return err
}

// assembleReport builds a ProcessingReport from the store.
func assembleReport(ctx context.Context, db *database.LinkDB, recentLimit int) (*model.ProcessingReport, error) {
	hostings, err := db.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics: %w", err)
	}

	var recent []model.LinkResult
	if recentLimit > 0 {
		recent, err = db.RecentResults(ctx, recentLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to read recent results: %w", err)
		}
	}

	return model.NewProcessingReport(hostings, recent), nil
}

// openReportOutput resolves the report destination: the given file
// path, or the command's stdout. The returned cleanup closes the file
// when one was opened.
func openReportOutput(cmd *cobra.Command, path string) (output io.Writer, cleanup func(), err error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// selectWriter picks the report writer for the requested format.
func selectWriter(output io.Writer, jsonOut, markdownOut bool) report.Writer {
	switch {
	case jsonOut:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case markdownOut:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(true))
	}
}
