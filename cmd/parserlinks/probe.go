package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
	"github.com/Wtfthisman1/ParserLinks/internal/download"
	"github.com/Wtfthisman1/ParserLinks/internal/log"
	"github.com/Wtfthisman1/ParserLinks/internal/model"
	"github.com/Wtfthisman1/ParserLinks/internal/probe"
)

// NewProbeCmd creates the probe command.
func NewProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <url> [url...]",
		Short: "Classify one or more page URLs",
		Long: `Probe classifies page URLs without the batch machinery: each URL is
fetched, the response prefix is scanned, and the result is printed.

The hosting profile is inferred from the URL's host. Use --hosting to
force a profile when probing a mirror or an unknown domain.

Examples:
  # Classify a single page
  parserlinks probe https://ibb.co/abc12345

  # Classify and download on a hit
  parserlinks probe --download https://postimg.cc/xyz98765`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProbeCmd,
	}

	cmd.Flags().String("hosting", "",
		"Hosting profile to use (default: inferred from the URL host)")
	cmd.Flags().BoolP("download", "D", false,
		"Download the image when the probe finds one")
	cmd.Flags().StringP("dir", "d", "downloads",
		"Directory for downloaded images")
	cmd.Flags().Bool("insecure", true,
		"Accept invalid TLS certificates from target hosts")

	return cmd
}

// runProbeCmd executes the probe command.
func runProbeCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	hostingName, err := cmd.Flags().GetString("hosting")
	if err != nil {
		return err
	}
	doDownload, err := cmd.Flags().GetBool("download")
	if err != nil {
		return err
	}
	downloadDir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	insecure, err := cmd.Flags().GetBool("insecure")
	if err != nil {
		return err
	}

	engine := probe.NewEngine(
		probe.WithInsecureTLS(insecure),
		probe.WithEngineLogger(logger),
	)
	defer engine.Close() //nolint:errcheck // Best effort cleanup

	downloader := download.New(
		download.WithDirectory(downloadDir),
		download.WithInsecureTLS(insecure),
		download.WithLogger(logger),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, rawURL := range args {
		hosting, err := resolveHosting(cfg, hostingName, rawURL)
		if err != nil {
			return err
		}

		result := engine.Probe(ctx, rawURL, hosting.Name)
		printProbeResult(cmd, result)

		if doDownload && result.Positive() {
			outcome, err := downloader.Download(ctx, result, hosting)
			if err != nil {
				fmt.Fprintf(os.Stderr, "download failed for %s: %v\n", rawURL, err)
				continue
			}
			if outcome.Status == model.StatusDownloaded {
				fmt.Fprintf(cmd.OutOrStdout(), "  saved: %s (%d bytes)\n", outcome.FilePath, outcome.FileSize)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "  skipped: %s\n", outcome.SkipReason)
			}
		}
	}

	return nil
}

// resolveHosting picks the hosting profile for a URL: the explicit
// --hosting flag wins, otherwise the URL host is matched against the
// configured profile domains.
func resolveHosting(cfg *config.Config, explicit, rawURL string) (config.Hosting, error) {
	if explicit != "" {
		h, ok := cfg.Hosting(explicit)
		if !ok {
			return config.Hosting{}, fmt.Errorf("unknown hosting profile %q", explicit)
		}
		return h, nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return config.Hosting{}, fmt.Errorf("invalid URL %q", rawURL)
	}

	host := parsed.Hostname()
	for _, h := range cfg.Hostings {
		if host == h.Domain || strings.HasSuffix(host, "."+h.Domain) {
			return h, nil
		}
	}
	return config.Hosting{}, fmt.Errorf("no hosting profile matches host %q (use --hosting)", host)
}

// printProbeResult prints one classification outcome.
func printProbeResult(cmd *cobra.Command, result *model.ProbeResult) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s: %s\n", result.URL, result.Status)
	switch result.Status {
	case model.ProbeImageDetected:
		fmt.Fprintf(out, "  content-type: %s, length: %d\n", result.ContentType, result.ContentLength)
	case model.ProbeImageReference:
		fmt.Fprintf(out, "  image: %s\n", result.ImageURL)
	case model.ProbeFailed:
		fmt.Fprintf(out, "  failure: %s (%s)\n", result.Err, result.FailureKind)
	case model.ProbeNoImage:
		fmt.Fprintf(out, "  scanned %d bytes, nothing found\n", result.BodyBytes)
	}
}
