package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
	"github.com/Wtfthisman1/ParserLinks/internal/database"
	"github.com/Wtfthisman1/ParserLinks/internal/download"
	"github.com/Wtfthisman1/ParserLinks/internal/extractor"
	"github.com/Wtfthisman1/ParserLinks/internal/generator"
	"github.com/Wtfthisman1/ParserLinks/internal/log"
	"github.com/Wtfthisman1/ParserLinks/internal/pipeline"
	"github.com/Wtfthisman1/ParserLinks/internal/probe"
)

// runOptions holds the run-command settings that live outside Config.
type runOptions struct {
	// hosting is the target hosting profile name.
	hosting string

	// total is the number of URLs to generate; zero runs until
	// interrupted.
	total int

	// strategy selects the token generation strategy.
	strategy generator.Strategy

	// tokenLength overrides the profile's token length when positive.
	tokenLength int

	// urlsFile processes URLs from a file instead of generating them.
	urlsFile string
}

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <hosting>",
		Short: "Probe generated URLs against an image hosting",
		Long: `Run generates candidate page URLs for the given hosting profile and
probes them in rate-limited batches. Pages that resolve to an image are
downloaded; every URL's outcome is persisted so it is never probed twice.

Without --total the run continues until interrupted (Ctrl-C). Progress
is reported periodically via the structured log (enable with --verbose).

Examples:
  # Probe imgbb until interrupted
  parserlinks run imgbb

  # Probe 10000 generated URLs against postimages
  parserlinks run postimages --total 10000

  # Use sequential tokens with a shorter length
  parserlinks run imgbb --strategy sequential --token-length 6

  # Probe URLs listed in a file (one per line)
  parserlinks run imgbb --urls-file candidates.txt

  # Re-examine empty pages with the full HTML extractor
  parserlinks run imgbb --deep-scan`,
		Args: cobra.ExactArgs(1),
		RunE: runRunCmd,
	}

	// Generation flags
	cmd.Flags().IntP("total", "n", 0,
		"Total number of URLs to generate (0 = run until interrupted)")
	cmd.Flags().StringP("strategy", "s", string(generator.StrategySmart),
		"Token generation strategy (random, timestamp, hash, sequential, smart)")
	cmd.Flags().Int("token-length", 0,
		"Override the hosting profile's token length")
	cmd.Flags().String("urls-file", "",
		"Probe URLs from this file (one per line) instead of generating")

	// Batch behavior flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of URLs per batch")
	cmd.Flags().Int("concurrency", config.DefaultMaxConcurrent,
		"Maximum in-flight probe tasks")
	cmd.Flags().Int("rate", config.DefaultRatePerSecond,
		"Global request rate limit (requests per second)")
	cmd.Flags().Duration("task-timeout", config.DefaultTaskTimeout,
		"Per-task probe timeout within a batch")
	cmd.Flags().Duration("batch-deadline", config.DefaultBatchDeadline,
		"Deadline before a batch returns partial results")
	cmd.Flags().Bool("deep-scan", false,
		"Re-examine empty pages with the full HTML extractor")

	// Network flags
	cmd.Flags().Int("pool", config.DefaultPoolCapacity,
		"Connection pool capacity per host")
	cmd.Flags().Duration("connect-timeout", config.DefaultConnectTimeout,
		"Connection establishment timeout")
	cmd.Flags().Duration("read-timeout", config.DefaultReadTimeout,
		"Response read timeout per exchange")
	cmd.Flags().Duration("write-timeout", config.DefaultWriteTimeout,
		"Request write timeout")
	cmd.Flags().Int("scan-budget", config.DefaultScanBudget,
		"Response body prefix scanned for image references (bytes)")
	cmd.Flags().Bool("insecure", true,
		"Accept invalid TLS certificates from target hosts")

	// Download flags
	cmd.Flags().StringP("dir", "d", "downloads",
		"Directory for downloaded images")
	cmd.Flags().Int("min-age", config.DefaultMinImageAge,
		"Minimum image age in days before downloading (0 = download all)")
	cmd.Flags().Int64("max-size", config.DefaultMaxImageSize,
		"Maximum image size in bytes")

	// Storage and profiles
	cmd.Flags().String("db-dir", "",
		"Directory for the SQLite link store (default: XDG data directory)")
	cmd.Flags().StringP("profiles", "p", "",
		"Hosting profile file path (default: hostings.yml in current or config directory)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := buildRunConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	hosting, ok := cfg.Hosting(opts.hosting)
	if !ok {
		return fmt.Errorf("unknown hosting profile %q (known: %s)",
			opts.hosting, strings.Join(hostingNames(cfg), ", "))
	}
	hosting = hosting.WithTokenLength(opts.tokenLength)

	// Set up structured logging
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runProcessing(ctx, cfg, opts, hosting, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildRunConfig creates a Config and runOptions from cobra command flags.
func buildRunConfig(cmd *cobra.Command, args []string) (*config.Config, *runOptions, error) {
	cfg := config.NewConfig()
	opts := &runOptions{hosting: args[0]}

	var err error

	opts.total, err = cmd.Flags().GetInt("total")
	if err != nil {
		return nil, nil, err
	}

	strategy, err := cmd.Flags().GetString("strategy")
	if err != nil {
		return nil, nil, err
	}
	opts.strategy = generator.Strategy(strategy)
	if !opts.strategy.Valid() {
		return nil, nil, fmt.Errorf("unknown strategy %q (use random, timestamp, hash, sequential, or smart)", strategy)
	}

	opts.tokenLength, err = cmd.Flags().GetInt("token-length")
	if err != nil {
		return nil, nil, err
	}

	opts.urlsFile, err = cmd.Flags().GetString("urls-file")
	if err != nil {
		return nil, nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, nil, err
	}

	cfg.MaxConcurrent, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, nil, err
	}

	cfg.RatePerSecond, err = cmd.Flags().GetInt("rate")
	if err != nil {
		return nil, nil, err
	}

	cfg.TaskTimeout, err = cmd.Flags().GetDuration("task-timeout")
	if err != nil {
		return nil, nil, err
	}

	cfg.BatchDeadline, err = cmd.Flags().GetDuration("batch-deadline")
	if err != nil {
		return nil, nil, err
	}

	cfg.DeepScan, err = cmd.Flags().GetBool("deep-scan")
	if err != nil {
		return nil, nil, err
	}

	cfg.PoolCapacity, err = cmd.Flags().GetInt("pool")
	if err != nil {
		return nil, nil, err
	}

	cfg.ConnectTimeout, err = cmd.Flags().GetDuration("connect-timeout")
	if err != nil {
		return nil, nil, err
	}

	cfg.ReadTimeout, err = cmd.Flags().GetDuration("read-timeout")
	if err != nil {
		return nil, nil, err
	}

	cfg.WriteTimeout, err = cmd.Flags().GetDuration("write-timeout")
	if err != nil {
		return nil, nil, err
	}

	cfg.ScanBudget, err = cmd.Flags().GetInt("scan-budget")
	if err != nil {
		return nil, nil, err
	}

	cfg.InsecureTLS, err = cmd.Flags().GetBool("insecure")
	if err != nil {
		return nil, nil, err
	}

	cfg.DownloadDir, err = cmd.Flags().GetString("dir")
	if err != nil {
		return nil, nil, err
	}

	cfg.MinImageAgeDays, err = cmd.Flags().GetInt("min-age")
	if err != nil {
		return nil, nil, err
	}

	cfg.MaxImageSize, err = cmd.Flags().GetInt64("max-size")
	if err != nil {
		return nil, nil, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	// Load hosting profiles from file, merged over the built-ins.
	// If user explicitly specified a profile file path, error if not found.
	// If no path specified, silently use the built-ins if no file found.
	profilePath, err := cmd.Flags().GetString("profiles")
	if err != nil {
		return nil, nil, err
	}
	explicitProfilePath := profilePath != ""
	found := config.FindProfileFile(profilePath)
	if found != "" {
		if err := config.LoadProfileFile(cfg, found); err != nil {
			return nil, nil, fmt.Errorf("failed to load profile file %s: %w", found, err)
		}
	} else if explicitProfilePath {
		return nil, nil, fmt.Errorf("hosting profile file not found: %s", profilePath)
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, opts, nil
}

// hostingNames returns the configured profile names for error messages.
func hostingNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Hostings))
	for name := range cfg.Hostings {
		names = append(names, name)
	}
	return names
}

// runProcessing wires the stages together and drives the selected mode.
func runProcessing(ctx context.Context, cfg *config.Config, opts *runOptions, hosting config.Hosting, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database opened", "path", db.Path())

	engine := probe.NewEngine(
		probe.WithPoolCapacity(cfg.PoolCapacity),
		probe.WithConnectTimeout(cfg.ConnectTimeout),
		probe.WithInsecureTLS(cfg.InsecureTLS),
		probe.WithEngineLogger(logger),
		probe.WithClassifier(probe.NewClassifier(
			probe.WithScanBudget(cfg.ScanBudget),
			probe.WithReadTimeout(cfg.ReadTimeout),
			probe.WithWriteTimeout(cfg.WriteTimeout),
			probe.WithClassifierLogger(logger),
		)),
	)
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("failed to close probe engine", "error", err)
		}
	}()

	downloader := download.New(
		download.WithDirectory(cfg.DownloadDir),
		download.WithMinImageAge(cfg.MinImageAgeDays),
		download.WithMaxImageSize(cfg.MaxImageSize),
		download.WithInsecureTLS(cfg.InsecureTLS),
		download.WithLogger(logger),
	)

	batchOpts := []pipeline.BatchOption{
		pipeline.WithMaxConcurrent(cfg.MaxConcurrent),
		pipeline.WithRate(cfg.RatePerSecond),
		pipeline.WithTaskTimeout(cfg.TaskTimeout),
		pipeline.WithBatchDeadline(cfg.BatchDeadline),
		pipeline.WithBatchLogger(logger),
	}
	if cfg.DeepScan {
		batchOpts = append(batchOpts, pipeline.WithDeepScan(
			extractor.New(
				extractor.WithInsecureTLS(cfg.InsecureTLS),
				extractor.WithLogger(logger),
			),
		))
	}

	processor := pipeline.NewBatchProcessor(engine, downloader, db, batchOpts...)

	runner := pipeline.NewRunner(processor, generator.New(),
		pipeline.WithStrategy(opts.strategy),
		pipeline.WithRunnerLogger(logger),
	)

	startTime := time.Now()
	runErr := dispatchRun(ctx, runner, cfg, opts, hosting)
	elapsed := time.Since(startTime)

	printSummary(processor.Stats().Snapshot(), engine.Stats(), elapsed)

	// Interruption is the normal way to stop a continuous run.
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		return nil
	}
	return runErr
}

// dispatchRun selects the processing mode from the options.
func dispatchRun(ctx context.Context, runner *pipeline.Runner, cfg *config.Config, opts *runOptions, hosting config.Hosting) error {
	batchSize := clampBatchSize(cfg.BatchSize, opts.total)

	if opts.urlsFile != "" {
		urls, err := readURLsFile(opts.urlsFile)
		if err != nil {
			return err
		}
		fmt.Printf("Probing %d URLs from %s against %s...\n", len(urls), opts.urlsFile, hosting.Name)
		runner.ProcessURLs(ctx, urls, hosting, batchSize)
		return nil
	}

	if opts.total > 0 {
		fmt.Printf("Probing %d generated URLs against %s...\n", opts.total, hosting.Name)
		return runner.RunFixed(ctx, hosting, opts.total, batchSize)
	}

	fmt.Printf("Probing %s until interrupted (Ctrl-C to stop)...\n", hosting.Name)
	return runner.RunContinuous(ctx, hosting, batchSize)
}

// clampBatchSize clamps the batch size to the requested total so a
// small fixed run does not wait on a mostly-empty batch.
func clampBatchSize(size, total int) int {
	if size <= 0 {
		size = config.DefaultBatchSize
	}
	if total > 0 && total < size {
		size = total
	}
	return size
}

// readURLsFile reads one URL per line, skipping blanks and # comments.
func readURLsFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided URL list is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL file: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs found in %s", path)
	}
	return urls, nil
}

// printSummary prints the end-of-run counters.
func printSummary(snap pipeline.Snapshot, engine probe.Stats, elapsed time.Duration) {
	fmt.Printf("\nProcessed %d URLs in %s (%.1f/sec)\n",
		snap.Processed, elapsed.Round(time.Millisecond), snap.PerSecond)
	fmt.Printf("  downloaded: %d\n", snap.Downloaded)
	fmt.Printf("  empty:      %d\n", snap.Empty)
	fmt.Printf("  skipped:    %d\n", snap.Skipped)
	fmt.Printf("  errors:     %d\n", snap.Errors)
	fmt.Printf("Network: %d requests, %d bytes read, %d early terminations\n",
		engine.TotalRequests, engine.BytesRead, engine.EarlyTerminations)
}
