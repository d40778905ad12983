package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
	"github.com/Wtfthisman1/ParserLinks/internal/download"
	"github.com/Wtfthisman1/ParserLinks/internal/model"
)

// DefaultMaxConcurrent bounds in-flight tasks when no option is given.
const DefaultMaxConcurrent = 100

// DefaultRatePerSecond is the global request rate cap.
const DefaultRatePerSecond = 500

// DefaultTaskTimeout bounds one probe exchange.
const DefaultTaskTimeout = 2 * time.Second

// DefaultBatchDeadline bounds how long RunBatch waits for its tasks.
const DefaultBatchDeadline = 10 * time.Second

// Prober classifies one URL. The probe engine implements this.
type Prober interface {
	Probe(ctx context.Context, url, hosting string) *model.ProbeResult
}

// Downloader transfers an accepted image. The download stage
// implements this.
type Downloader interface {
	Download(ctx context.Context, probe *model.ProbeResult, hosting config.Hosting) (*download.Outcome, error)
}

// Store persists per-URL outcomes. The link database implements this.
type Store interface {
	IsProcessed(ctx context.Context, url string) (bool, error)
	SaveResult(ctx context.Context, result *model.LinkResult) error
}

// DeepScanner re-examines pages the prefix scan called empty. The
// extractor implements this.
type DeepScanner interface {
	ExtractFromURL(ctx context.Context, pageURL string) ([]string, error)
}

// BatchProcessor runs batches of candidate URLs through probe,
// policy, download, and persistence.
type BatchProcessor struct {
	prober     Prober
	downloader Downloader
	store      Store

	// deep is nil unless deep scanning was enabled.
	deep DeepScanner

	// sem bounds in-flight tasks; limiter caps the request rate.
	sem     *semaphore.Weighted
	limiter *rate.Limiter

	// taskTimeout bounds one probe; batchDeadline bounds the wait for
	// a whole batch.
	taskTimeout   time.Duration
	batchDeadline time.Duration

	// stats accumulates across batches.
	stats *Stats

	// logger is used for structured logging.
	logger *slog.Logger
}

// BatchOption is a function that configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithMaxConcurrent bounds the number of in-flight tasks.
func WithMaxConcurrent(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRate caps probe requests per second across all tasks.
func WithRate(perSecond int) BatchOption {
	return func(b *BatchProcessor) {
		if perSecond > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

// WithTaskTimeout bounds one probe exchange.
func WithTaskTimeout(d time.Duration) BatchOption {
	return func(b *BatchProcessor) {
		if d > 0 {
			b.taskTimeout = d
		}
	}
}

// WithBatchDeadline bounds how long RunBatch waits before returning
// partial results.
func WithBatchDeadline(d time.Duration) BatchOption {
	return func(b *BatchProcessor) {
		if d > 0 {
			b.batchDeadline = d
		}
	}
}

// WithDeepScan re-probes pages classified as empty with a full-page
// extraction before giving up on them.
func WithDeepScan(scanner DeepScanner) BatchOption {
	return func(b *BatchProcessor) {
		b.deep = scanner
	}
}

// WithStats shares a Stats accumulator across processors.
func WithStats(stats *Stats) BatchOption {
	return func(b *BatchProcessor) {
		if stats != nil {
			b.stats = stats
		}
	}
}

// WithBatchLogger sets a custom logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// NewBatchProcessor creates a BatchProcessor over the given stages.
func NewBatchProcessor(prober Prober, downloader Downloader, store Store, opts ...BatchOption) *BatchProcessor {
	b := &BatchProcessor{
		prober:        prober,
		downloader:    downloader,
		store:         store,
		sem:           semaphore.NewWeighted(DefaultMaxConcurrent),
		limiter:       rate.NewLimiter(DefaultRatePerSecond, DefaultRatePerSecond),
		taskTimeout:   DefaultTaskTimeout,
		batchDeadline: DefaultBatchDeadline,
		stats:         NewStats(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Stats returns the shared accumulator.
func (b *BatchProcessor) Stats() *Stats {
	return b.stats
}

// RunBatch processes one batch of URLs and returns the results that
// completed before the batch deadline. Tasks still running at the
// deadline finish detached: they persist their outcome and update the
// statistics exactly once, but their results are not in the returned
// slice.
func (b *BatchProcessor) RunBatch(ctx context.Context, urls []string, hosting config.Hosting) []model.LinkResult {
	if len(urls) == 0 {
		return nil
	}

	// Buffered to the batch size so detached stragglers never block
	// on a send nobody is receiving.
	resultCh := make(chan model.LinkResult, len(urls))
	done := make(chan struct{})

	// Task lifetimes are decoupled from the batch deadline: only the
	// collector races the timer.
	taskCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(len(urls))
	for _, u := range urls {
		go func(u string) {
			defer wg.Done()
			resultCh <- b.processURL(taskCtx, u, hosting)
		}(u)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	deadline := time.NewTimer(b.batchDeadline)
	defer deadline.Stop()

	results := make([]model.LinkResult, 0, len(urls))
	for {
		select {
		case r := <-resultCh:
			results = append(results, r)
			if len(results) == len(urls) {
				return results
			}
		case <-done:
			// Drain anything raced between the last send and close.
			for {
				select {
				case r := <-resultCh:
					results = append(results, r)
				default:
					return results
				}
			}
		case <-deadline.C:
			b.logger.Warn("batch deadline reached, returning partial results",
				"completed", len(results),
				"total", len(urls),
			)
			return results
		case <-ctx.Done():
			b.logger.Warn("batch cancelled, returning partial results",
				"completed", len(results),
				"total", len(urls),
			)
			return results
		}
	}
}

// processURL runs one URL through the full stage sequence and returns
// its terminal record. Persistence and stats happen here so detached
// stragglers count exactly once.
func (b *BatchProcessor) processURL(ctx context.Context, rawURL string, hosting config.Hosting) model.LinkResult {
	// Known URLs cost nothing: no probe, no re-persist. The stored
	// record, whatever its status, stands.
	if processed, err := b.store.IsProcessed(ctx, rawURL); err == nil && processed {
		result := model.LinkResult{
			URL:         rawURL,
			Hosting:     hosting.Name,
			Status:      model.StatusSkipped,
			ProcessedAt: time.Now(),
		}
		b.stats.Record(result.Status)
		return result
	}

	result := b.examine(ctx, rawURL, hosting)

	if err := b.store.SaveResult(ctx, &result); err != nil {
		b.logger.Warn("failed to persist result",
			"url", rawURL,
			"error", err,
		)
	}
	b.stats.Record(result.Status)
	return result
}

// examine probes and, when warranted, downloads one URL.
func (b *BatchProcessor) examine(ctx context.Context, rawURL string, hosting config.Hosting) model.LinkResult {
	result := model.LinkResult{
		URL:         rawURL,
		Hosting:     hosting.Name,
		ProcessedAt: time.Now(),
	}

	if err := b.sem.Acquire(ctx, 1); err != nil {
		result.Status = model.StatusError
		result.ErrorMessage = err.Error()
		return result
	}
	defer b.sem.Release(1)

	if err := b.limiter.Wait(ctx); err != nil {
		result.Status = model.StatusError
		result.ErrorMessage = err.Error()
		return result
	}

	probeCtx, cancel := context.WithTimeout(ctx, b.taskTimeout)
	probe := b.prober.Probe(probeCtx, rawURL, hosting.Name)
	cancel()

	if probe.Status == model.ProbeNoImage && b.deep != nil {
		if urls, err := b.deep.ExtractFromURL(ctx, rawURL); err == nil && len(urls) > 0 {
			probe.Status = model.ProbeImageReference
			probe.ImageURL = urls[0]
		}
	}

	switch {
	case probe.Status == model.ProbeFailed:
		result.Status = model.StatusError
		result.ErrorMessage = probe.Err

	case probe.Positive():
		outcome, err := b.downloader.Download(ctx, probe, hosting)
		if err != nil {
			result.Status = model.StatusError
			result.ErrorMessage = err.Error()
			break
		}
		result.Status = outcome.Status
		result.FilePath = outcome.FilePath
		result.FileSize = outcome.FileSize
		result.ImageAgeDays = outcome.AgeDays
		result.CaptureTime = outcome.CaptureTime
		if outcome.Status == model.StatusSkipped {
			result.ErrorMessage = outcome.SkipReason
		}

	default:
		result.Status = model.StatusEmpty
	}

	return result
}
