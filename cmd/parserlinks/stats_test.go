package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Wtfthisman1/ParserLinks/internal/database"
	"github.com/Wtfthisman1/ParserLinks/internal/model"
	"github.com/Wtfthisman1/ParserLinks/internal/report"
)

// seedStatsDB creates a store with a few records and returns its directory.
func seedStatsDB(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	results := []model.LinkResult{
		{URL: "https://ibb.co/aaa11111", Hosting: "imgbb", Status: model.StatusDownloaded, FilePath: "/tmp/a.jpg", FileSize: 100},
		{URL: "https://ibb.co/bbb22222", Hosting: "imgbb", Status: model.StatusEmpty},
		{URL: "https://postimg.cc/ccc3333", Hosting: "postimages", Status: model.StatusError, ErrorMessage: "timeout"},
	}
	for i := range results {
		if err := db.SaveResult(ctx, &results[i]); err != nil {
			t.Fatalf("failed to save result: %v", err)
		}
	}
	return dir
}

// TestStatsCmd tests the stats command against a seeded store.
func TestStatsCmd(t *testing.T) {
	t.Parallel()

	t.Run("text report", func(t *testing.T) {
		t.Parallel()

		dir := seedStatsDB(t)

		var buf bytes.Buffer
		cmd := NewStatsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "PARSERLINKS REPORT") {
			t.Error("expected report header")
		}
		if !strings.Contains(output, "[imgbb]") {
			t.Error("expected imgbb breakdown")
		}
		if !strings.Contains(output, "https://ibb.co/aaa11111") {
			t.Error("expected recent result")
		}
	})

	t.Run("json report", func(t *testing.T) {
		t.Parallel()

		dir := seedStatsDB(t)

		var buf bytes.Buffer
		cmd := NewStatsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir, "--json"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var wrapped report.JSONReport
		if err := json.Unmarshal(buf.Bytes(), &wrapped); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if wrapped.Report == nil {
			t.Fatal("expected wrapped report")
		}
		if wrapped.Report.Hostings["imgbb"].Total != 2 {
			t.Errorf("imgbb.Total = %d, want 2", wrapped.Report.Hostings["imgbb"].Total)
		}
	})

	t.Run("markdown report to file", func(t *testing.T) {
		t.Parallel()

		dir := seedStatsDB(t)
		outPath := filepath.Join(t.TempDir(), "reports", "stats.md")

		cmd := NewStatsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", dir, "--markdown", "-o", outPath})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(outPath)
		if err != nil {
			t.Fatalf("expected report file: %v", err)
		}
		if !strings.Contains(string(data), "# ParserLinks Report") {
			t.Error("expected markdown header in report file")
		}
	})

	t.Run("json and markdown are exclusive", func(t *testing.T) {
		t.Parallel()

		cmd := NewStatsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", t.TempDir(), "--json", "--markdown"})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for exclusive flags")
		}
	})

	t.Run("missing store is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewStatsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for missing store")
		}
	})
}

// TestCleanupCmd tests the cleanup command.
func TestCleanupCmd(t *testing.T) {
	t.Parallel()

	t.Run("reports deletions", func(t *testing.T) {
		t.Parallel()

		dir := seedStatsDB(t)

		var buf bytes.Buffer
		cmd := NewCleanupCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir, "--days", "7"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Freshly inserted records are younger than the window.
		if !strings.Contains(buf.String(), "Deleted 0 record(s)") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("missing store is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewCleanupCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for missing store")
		}
	})

	t.Run("rejects non-positive days", func(t *testing.T) {
		t.Parallel()

		dir := seedStatsDB(t)

		cmd := NewCleanupCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", dir, "--days", "0"})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for zero retention window")
		}
	})
}
