package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
	"github.com/Wtfthisman1/ParserLinks/internal/database"
)

// DefaultCleanupDays is the default retention window for stored records.
const DefaultCleanupDays = 30

// NewCleanupCmd creates the cleanup command.
func NewCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old records from the link store",
		Long: `Cleanup deletes records older than the retention window. Deleted
URLs become eligible for probing again.

Examples:
  # Delete records older than 30 days (default)
  parserlinks cleanup

  # Delete records older than a week
  parserlinks cleanup --days 7`,
		RunE: runCleanupCmd,
	}

	cmd.Flags().Int("days", DefaultCleanupDays,
		"Delete records older than this many days")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite link store (default: XDG data directory)")

	return cmd
}

// runCleanupCmd executes the cleanup command.
func runCleanupCmd(cmd *cobra.Command, _ []string) error {
	days, err := cmd.Flags().GetInt("days")
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

	deleted, err := db.Cleanup(ctx, days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s) older than %d day(s)\n", deleted, days)
	return nil
}
