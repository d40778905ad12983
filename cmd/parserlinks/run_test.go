package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Wtfthisman1/ParserLinks/internal/generator"
)

// TestNewRunCmd tests the run command definition.
func TestNewRunCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRunCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "run <hosting>" {
			t.Errorf("expected use 'run <hosting>', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"total", "strategy", "token-length", "urls-file",
			"batch", "concurrency", "rate", "task-timeout", "batch-deadline",
			"deep-scan", "pool", "connect-timeout", "read-timeout",
			"write-timeout", "scan-budget", "insecure",
			"dir", "min-age", "max-size", "db-dir", "profiles",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})
}

// TestBuildRunConfig tests translation of flags into configuration.
func TestBuildRunConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewRunCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, opts, err := buildRunConfig(cmd, []string{"imgbb"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if opts.hosting != "imgbb" {
			t.Errorf("hosting = %q, want imgbb", opts.hosting)
		}
		if opts.total != 0 {
			t.Errorf("total = %d, want 0", opts.total)
		}
		if opts.strategy != generator.StrategySmart {
			t.Errorf("strategy = %q, want smart", opts.strategy)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewRunCmd()
		args := []string{
			"--total", "500",
			"--strategy", "sequential",
			"--token-length", "6",
			"--batch", "25",
			"--concurrency", "8",
			"--rate", "40",
			"--task-timeout", "5s",
			"--min-age", "7",
			"--deep-scan",
			"--insecure=false",
		}
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, opts, err := buildRunConfig(cmd, []string{"postimages"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if opts.total != 500 {
			t.Errorf("total = %d, want 500", opts.total)
		}
		if opts.strategy != generator.StrategySequential {
			t.Errorf("strategy = %q, want sequential", opts.strategy)
		}
		if opts.tokenLength != 6 {
			t.Errorf("tokenLength = %d, want 6", opts.tokenLength)
		}
		if cfg.BatchSize != 25 {
			t.Errorf("BatchSize = %d, want 25", cfg.BatchSize)
		}
		if cfg.MaxConcurrent != 8 {
			t.Errorf("MaxConcurrent = %d, want 8", cfg.MaxConcurrent)
		}
		if cfg.RatePerSecond != 40 {
			t.Errorf("RatePerSecond = %d, want 40", cfg.RatePerSecond)
		}
		if cfg.TaskTimeout != 5*time.Second {
			t.Errorf("TaskTimeout = %v, want 5s", cfg.TaskTimeout)
		}
		if cfg.MinImageAgeDays != 7 {
			t.Errorf("MinImageAgeDays = %d, want 7", cfg.MinImageAgeDays)
		}
		if !cfg.DeepScan {
			t.Error("expected DeepScan to be enabled")
		}
		if cfg.InsecureTLS {
			t.Error("expected InsecureTLS to be disabled")
		}
	})

	t.Run("rejects unknown strategy", func(t *testing.T) {
		t.Parallel()

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"--strategy", "bogus"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, _, err := buildRunConfig(cmd, []string{"imgbb"}); err == nil {
			t.Error("expected error for unknown strategy")
		}
	})

	t.Run("rejects missing explicit profile file", func(t *testing.T) {
		t.Parallel()

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"--profiles", "/nonexistent/hostings.yml"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, _, err := buildRunConfig(cmd, []string{"imgbb"}); err == nil {
			t.Error("expected error for missing profile file")
		}
	})

	t.Run("loads explicit profile file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "hostings.yml")
		content := "hostings:\n  imgbb:\n    tokenLength: 5\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write profile file: %v", err)
		}

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"--profiles", path}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, _, err := buildRunConfig(cmd, []string{"imgbb"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		h, ok := cfg.Hosting("imgbb")
		if !ok {
			t.Fatal("expected imgbb profile")
		}
		if h.TokenLength != 5 {
			t.Errorf("TokenLength = %d, want 5", h.TokenLength)
		}
		// Unset fields fall back to the built-in profile.
		if h.Domain != "ibb.co" {
			t.Errorf("Domain = %q, want ibb.co", h.Domain)
		}
	})
}

// TestClampBatchSize tests batch size clamping against the total.
func TestClampBatchSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		size  int
		total int
		want  int
	}{
		{name: "total larger than batch", size: 100, total: 500, want: 100},
		{name: "total smaller than batch", size: 100, total: 30, want: 30},
		{name: "continuous run keeps batch", size: 100, total: 0, want: 100},
		{name: "non-positive size uses default", size: 0, total: 0, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := clampBatchSize(tt.size, tt.total); got != tt.want {
				t.Errorf("clampBatchSize(%d, %d) = %d, want %d", tt.size, tt.total, got, tt.want)
			}
		})
	}
}

// TestReadURLsFile tests URL list parsing.
func TestReadURLsFile(t *testing.T) {
	t.Parallel()

	t.Run("skips blanks and comments", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "urls.txt")
		content := "# candidates\nhttps://ibb.co/a1\n\n  https://ibb.co/a2  \n# done\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write URL file: %v", err)
		}

		urls, err := readURLsFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(urls) != 2 {
			t.Fatalf("len(urls) = %d, want 2", len(urls))
		}
		if urls[0] != "https://ibb.co/a1" || urls[1] != "https://ibb.co/a2" {
			t.Errorf("urls = %v", urls)
		}
	})

	t.Run("empty file is an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "urls.txt")
		if err := os.WriteFile(path, []byte("# nothing here\n"), 0600); err != nil {
			t.Fatalf("failed to write URL file: %v", err)
		}

		if _, err := readURLsFile(path); err == nil {
			t.Error("expected error for file without URLs")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		t.Parallel()

		if _, err := readURLsFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
