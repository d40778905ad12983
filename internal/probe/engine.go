package probe

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Wtfthisman1/ParserLinks/internal/model"
	"github.com/Wtfthisman1/ParserLinks/internal/pool"
)

// DefaultAcquireAttempts is how many times Probe retries an exhausted
// pool before reporting a capacity failure.
const DefaultAcquireAttempts = 3

// DefaultAcquireBackoff is the pause between acquire attempts.
const DefaultAcquireBackoff = 50 * time.Millisecond

// Stats is a point-in-time snapshot of the engine counters.
type Stats struct {
	// TotalRequests is every Probe call made.
	TotalRequests int64

	// SuccessfulRequests is probes that produced a classification,
	// image or not.
	SuccessfulRequests int64

	// FailedRequests is probes that ended in ProbeFailed.
	FailedRequests int64

	// BytesRead is the sum of body bytes consumed across exchanges.
	BytesRead int64

	// EarlyTerminations is exchanges aborted before the body was
	// exhausted because the verdict was already known.
	EarlyTerminations int64

	// ActivePools is the number of per-endpoint connection pools.
	ActivePools int64
}

// Engine probes URLs through per-endpoint connection pools.
//
// Probe never returns an error: everything that can go wrong folds
// into a ProbeResult with status ProbeFailed and a failure kind, so
// the orchestrator above treats every URL uniformly.
type Engine struct {
	// classifier runs the wire exchange.
	classifier *Classifier

	// poolCapacity, connectTimeout, insecureTLS configure new pools.
	poolCapacity   int
	connectTimeout time.Duration
	insecureTLS    bool

	// acquireAttempts and acquireBackoff bound the exhausted-pool retry.
	acquireAttempts int
	acquireBackoff  time.Duration

	// logger is used for structured logging.
	logger *slog.Logger

	mu     sync.Mutex
	pools  map[string]*pool.Pool
	closed bool

	totalRequests      atomic.Int64
	successfulRequests atomic.Int64
	failedRequests     atomic.Int64
	bytesRead          atomic.Int64
	earlyTerminations  atomic.Int64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPoolCapacity sets the per-endpoint connection limit.
func WithPoolCapacity(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.poolCapacity = n
		}
	}
}

// WithConnectTimeout bounds each dial.
func WithConnectTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.connectTimeout = d
		}
	}
}

// WithInsecureTLS disables certificate verification on pooled TLS
// connections. See pool.WithTLS for the reasoning.
func WithInsecureTLS(insecure bool) EngineOption {
	return func(e *Engine) {
		e.insecureTLS = insecure
	}
}

// WithAcquireRetry tunes the exhausted-pool retry loop.
func WithAcquireRetry(attempts int, backoff time.Duration) EngineOption {
	return func(e *Engine) {
		if attempts > 0 {
			e.acquireAttempts = attempts
		}
		if backoff > 0 {
			e.acquireBackoff = backoff
		}
	}
}

// WithEngineLogger sets a custom logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClassifier replaces the default classifier. Intended for tests
// and for callers that tuned classifier options themselves.
func WithClassifier(c *Classifier) EngineOption {
	return func(e *Engine) {
		e.classifier = c
	}
}

// NewEngine creates an Engine with the given options.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		poolCapacity:    pool.DefaultCapacity,
		connectTimeout:  pool.DefaultConnectTimeout,
		insecureTLS:     true,
		acquireAttempts: DefaultAcquireAttempts,
		acquireBackoff:  DefaultAcquireBackoff,
		pools:           make(map[string]*pool.Pool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.classifier == nil {
		e.classifier = NewClassifier(WithClassifierLogger(e.logger))
	}
	return e
}

// Probe classifies one URL. The returned result always has the URL and
// hosting filled in; transport problems surface as ProbeFailed results
// with a failure kind, never as an error.
func (e *Engine) Probe(ctx context.Context, rawURL, hosting string) *model.ProbeResult {
	e.totalRequests.Add(1)

	pageURL, err := url.Parse(rawURL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") || pageURL.Host == "" {
		return e.fail(rawURL, hosting, model.FailureProtocol, "invalid url")
	}

	p, err := e.poolFor(pageURL)
	if err != nil {
		return e.fail(rawURL, hosting, model.FailureConnection, err.Error())
	}

	conn, reused, err := e.acquire(ctx, p)
	if err != nil {
		kind := model.FailureConnection
		if errors.Is(err, pool.ErrExhausted) {
			kind = model.FailureCapacity
		}
		return e.fail(rawURL, hosting, kind, err.Error())
	}

	result := e.exchange(ctx, p, conn, pageURL, hosting)

	// A reused connection can pass the pool's liveness check and still
	// be closed by the server before the request lands. Retry the
	// exchange once on a fresh acquire before surfacing a failure.
	if result.Status == model.ProbeFailed && reused && ctx.Err() == nil {
		if conn, _, err = e.acquire(ctx, p); err == nil {
			result = e.exchange(ctx, p, conn, pageURL, hosting)
		}
	}

	if result.Status == model.ProbeFailed {
		e.failedRequests.Add(1)
	} else {
		e.successfulRequests.Add(1)
	}

	e.logger.Debug("probed url",
		"url", rawURL,
		"status", string(result.Status),
		"bodyBytes", result.BodyBytes,
	)
	return result
}

// exchange runs one classification over conn, releases it back to the
// pool, and folds the outcome into the engine counters.
func (e *Engine) exchange(ctx context.Context, p *pool.Pool, conn net.Conn, pageURL *url.URL, hosting string) *model.ProbeResult {
	result, outcome := e.classifier.Classify(ctx, conn, pageURL, hosting)
	p.Release(conn, outcome.Reusable)

	e.bytesRead.Add(result.BodyBytes)
	if outcome.EarlyAbort {
		e.earlyTerminations.Add(1)
	}
	return result
}

// acquire leases a connection, backing off briefly while the pool is
// exhausted. It returns the last error when every attempt fails; the
// backoff is skipped after the final attempt so a capacity failure
// surfaces immediately.
func (e *Engine) acquire(ctx context.Context, p *pool.Pool) (net.Conn, bool, error) {
	var lastErr error
	for attempt := 0; attempt < e.acquireAttempts; attempt++ {
		conn, reused, err := p.Acquire(ctx)
		if err == nil {
			return conn, reused, nil
		}
		lastErr = err
		if !errors.Is(err, pool.ErrExhausted) {
			return nil, false, err
		}
		if attempt == e.acquireAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(e.acquireBackoff):
		}
	}
	return nil, false, lastErr
}

// fail records a failed probe and builds its result.
func (e *Engine) fail(rawURL, hosting string, kind model.FailureKind, detail string) *model.ProbeResult {
	e.failedRequests.Add(1)
	e.logger.Debug("probe failed",
		"url", rawURL,
		"kind", string(kind),
		"error", detail,
	)
	return &model.ProbeResult{
		URL:           rawURL,
		Hosting:       hosting,
		Status:        model.ProbeFailed,
		ContentLength: -1,
		FailureKind:   kind,
		Err:           detail,
	}
}

// poolFor returns the pool serving the URL's endpoint, creating it on
// first use.
func (e *Engine) poolFor(pageURL *url.URL) (*pool.Pool, error) {
	host := pageURL.Hostname()
	useTLS := pageURL.Scheme == "https"

	port := 80
	if useTLS {
		port = 443
	}
	if p := pageURL.Port(); p != "" {
		port = atoiPort(p, port)
	}

	key := pageURL.Scheme + "://" + pageURL.Host

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, pool.ErrClosed
	}
	if p, ok := e.pools[key]; ok {
		return p, nil
	}

	opts := []pool.Option{
		pool.WithCapacity(e.poolCapacity),
		pool.WithConnectTimeout(e.connectTimeout),
		pool.WithLogger(e.logger),
	}
	if useTLS {
		opts = append(opts, pool.WithTLS(host, e.insecureTLS))
	}

	p := pool.New(host, port, opts...)
	e.pools[key] = p
	return p, nil
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	activePools := int64(len(e.pools))
	e.mu.Unlock()

	return Stats{
		TotalRequests:      e.totalRequests.Load(),
		SuccessfulRequests: e.successfulRequests.Load(),
		FailedRequests:     e.failedRequests.Load(),
		BytesRead:          e.bytesRead.Load(),
		EarlyTerminations:  e.earlyTerminations.Load(),
		ActivePools:        activePools,
	}
}

// Close drains every pool. Probes in flight fail their releases back
// into closed pools, which simply close the connections.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	pools := e.pools
	e.pools = make(map[string]*pool.Pool)
	e.mu.Unlock()

	var firstErr error
	for _, p := range pools {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// atoiPort parses a decimal port, falling back when it is malformed.
func atoiPort(s string, fallback int) int {
	port := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return fallback
		}
		port = port*10 + int(c-'0')
		if port > 65535 {
			return fallback
		}
	}
	if port == 0 {
		return fallback
	}
	return port
}
