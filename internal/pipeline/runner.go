package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
	"github.com/Wtfthisman1/ParserLinks/internal/generator"
	"github.com/Wtfthisman1/ParserLinks/internal/model"
)

// DefaultBatchPause is the breather between consecutive batches.
const DefaultBatchPause = 50 * time.Millisecond

// DefaultStatsInterval is how many batches pass between stats logs.
const DefaultStatsInterval = 10

// Runner drives a BatchProcessor over generated or caller-supplied
// candidate URLs.
type Runner struct {
	processor *BatchProcessor
	gen       *generator.Generator

	// strategy selects how candidate tokens are derived.
	strategy generator.Strategy

	// batchPause separates consecutive batches.
	batchPause time.Duration

	// statsInterval is the batch count between stats log lines.
	statsInterval int

	// logger is used for structured logging.
	logger *slog.Logger
}

// RunnerOption is a function that configures a Runner.
type RunnerOption func(*Runner)

// WithBatchPause sets the pause between batches.
func WithBatchPause(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d >= 0 {
			r.batchPause = d
		}
	}
}

// WithStrategy selects the token generation strategy.
func WithStrategy(s generator.Strategy) RunnerOption {
	return func(r *Runner) {
		if s.Valid() {
			r.strategy = s
		}
	}
}

// WithStatsInterval sets how many batches pass between stats logs.
func WithStatsInterval(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.statsInterval = n
		}
	}
}

// WithRunnerLogger sets a custom logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner over the processor and generator.
func NewRunner(processor *BatchProcessor, gen *generator.Generator, opts ...RunnerOption) *Runner {
	r := &Runner{
		processor:     processor,
		gen:           gen,
		strategy:      generator.StrategySmart,
		batchPause:    DefaultBatchPause,
		statsInterval: DefaultStatsInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// RunContinuous generates and processes batches until the context is
// cancelled. It returns the context's error, so a clean shutdown comes
// back as context.Canceled.
func (r *Runner) RunContinuous(ctx context.Context, hosting config.Hosting, batchSize int) error {
	for batch := 1; ; batch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		urls := r.gen.GenerateWithStrategy(hosting, batchSize, r.strategy)
		r.processor.RunBatch(ctx, urls, hosting)
		r.maybeLogStats(batch)

		if err := r.pause(ctx); err != nil {
			return err
		}
	}
}

// RunFixed generates and processes total candidates in batches of
// batchSize, stopping early on cancellation.
func (r *Runner) RunFixed(ctx context.Context, hosting config.Hosting, total, batchSize int) error {
	if batchSize <= 0 || total <= 0 {
		return nil
	}

	remaining := total
	for batch := 1; remaining > 0; batch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		size := batchSize
		if size > remaining {
			size = remaining
		}
		remaining -= size

		urls := r.gen.GenerateWithStrategy(hosting, size, r.strategy)
		r.processor.RunBatch(ctx, urls, hosting)
		r.maybeLogStats(batch)

		if remaining > 0 {
			if err := r.pause(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessURLs processes caller-supplied URLs in batches of batchSize
// and returns every completed result.
func (r *Runner) ProcessURLs(ctx context.Context, urls []string, hosting config.Hosting, batchSize int) []model.LinkResult {
	if batchSize <= 0 {
		batchSize = len(urls)
	}

	var results []model.LinkResult
	for start := 0; start < len(urls); start += batchSize {
		if ctx.Err() != nil {
			return results
		}

		end := start + batchSize
		if end > len(urls) {
			end = len(urls)
		}
		results = append(results, r.processor.RunBatch(ctx, urls[start:end], hosting)...)

		if end < len(urls) {
			if err := r.pause(ctx); err != nil {
				return results
			}
		}
	}
	return results
}

// maybeLogStats logs the aggregate snapshot every statsInterval batches.
func (r *Runner) maybeLogStats(batch int) {
	if batch%r.statsInterval != 0 {
		return
	}

	snap := r.processor.Stats().Snapshot()
	r.logger.Info("processing statistics",
		"batches", batch,
		"processed", snap.Processed,
		"downloaded", snap.Downloaded,
		"empty", snap.Empty,
		"skipped", snap.Skipped,
		"errors", snap.Errors,
		"perSecond", snap.PerSecond,
	)
}

// pause sleeps the inter-batch interval, honoring cancellation.
func (r *Runner) pause(ctx context.Context) error {
	if r.batchPause == 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.batchPause):
		return nil
	}
}
