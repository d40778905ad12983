package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Wtfthisman1/ParserLinks/internal/extractor"
	"github.com/Wtfthisman1/ParserLinks/internal/log"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <url> [url...]",
		Short: "Extract image URLs from pages",
		Long: `Extract fetches full pages and lists every image URL found in them,
in priority order: social preview meta tags first, then img tags
(including lazy-load attributes and srcset), then links and inline
scripts. Page chrome such as logos and icons is filtered out.

This is the same analysis the run command applies with --deep-scan.

Examples:
  parserlinks extract https://ibb.co/abc12345`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExtractCmd,
	}

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ex := extractor.New(extractor.WithLogger(logger))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, pageURL := range args {
		urls, err := ex.ExtractFromURL(ctx, pageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "extract failed for %s: %v\n", pageURL, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d image URL(s)\n", pageURL, len(urls))
		for _, u := range urls {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", u)
		}
	}

	return nil
}
