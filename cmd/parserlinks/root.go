// Package main provides the entry point for the ParserLinks CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for ParserLinks.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parserlinks",
		Short: "High-throughput URL prober for image hostings",
		Long: `ParserLinks probes image-hosting page URLs at scale.
It generates candidate URLs, classifies each one by reading only a small
prefix of the response, and downloads the images it discovers.

Results are persisted to a local SQLite store so URLs are never
processed twice across sessions.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewProbeCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewCleanupCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
