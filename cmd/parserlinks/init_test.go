package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
)

// TestInitCmd tests profile file generation.
func TestInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates profile file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "hostings.yml")

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", path})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected profile file to exist: %v", err)
		}
		if len(data) == 0 {
			t.Error("expected non-empty profile file")
		}
	})

	t.Run("generated file loads cleanly", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "hostings.yml")

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", path})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := config.NewConfig()
		if err := config.LoadProfileFile(cfg, path); err != nil {
			t.Fatalf("generated profile file failed to load: %v", err)
		}
		// The template adds no profiles; the built-ins remain.
		if _, ok := cfg.Hosting("imgbb"); !ok {
			t.Error("expected built-in imgbb profile to survive")
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "hostings.yml")
		if err := os.WriteFile(path, []byte("hostings: {}\n"), 0600); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", path})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for existing file")
		}
	})

	t.Run("overwrites with force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "hostings.yml")
		if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", path, "-f"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(data) == "old" {
			t.Error("expected file to be overwritten")
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "dir", "hostings.yml")

		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", path})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected profile file in nested directory: %v", err)
		}
	})
}
