package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. The network defaults are deliberately
// generous: target hosts are consumer image hostings that throttle and
// stall under load, and a short read timeout would misclassify slow
// responses as failures.
const (
	// DefaultPoolCapacity is the maximum number of connections kept per
	// remote host. Image hostings start rejecting connections well
	// before typical browser pool sizes, so this stays small.
	DefaultPoolCapacity = 10

	// DefaultConnectTimeout bounds connection establishment, including
	// the TLS handshake.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultReadTimeout governs how long a single exchange may wait
	// for response bytes. This is independent of the per-task timeout
	// used by the batch orchestrator.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout bounds writing the request.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultScanBudget is the body prefix scanned for image references
	// before giving up. Landing pages embed the real image link very
	// early (meta tags, first <img>), so 8 KiB is sufficient.
	DefaultScanBudget = 8 * 1024

	// DefaultMaxConcurrent is the number of probe tasks allowed in
	// flight at once.
	DefaultMaxConcurrent = 100

	// DefaultRatePerSecond caps the global request rate across all
	// hosts.
	DefaultRatePerSecond = 500

	// DefaultTaskTimeout is the per-task result collection timeout
	// inside a batch.
	DefaultTaskTimeout = 2 * time.Second

	// DefaultBatchDeadline is how long a batch waits for its tasks
	// before returning partial results. Stragglers keep running and
	// self-report.
	DefaultBatchDeadline = 10 * time.Second

	// DefaultBatchSize is the number of URLs per generated batch.
	DefaultBatchSize = 100

	// DefaultBatchPause is the pause between consecutive batches,
	// letting the rate limiter window recover.
	DefaultBatchPause = 50 * time.Millisecond

	// DefaultMinImageAge is the minimum image age in days before a
	// found image is downloaded. Zero downloads everything.
	DefaultMinImageAge = 0

	// DefaultMaxImageSize is the largest declared Content-Length the
	// download stage will transfer.
	DefaultMaxImageSize = 50 * 1024 * 1024

	// AppName is used for XDG directory paths.
	AppName = "parserlinks"
)

// UserAgents is the rotation pool for outgoing requests. These mimic
// current desktop browsers; hostings serve reduced pages to unknown
// agents.
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Config holds all options for the prober. It is populated from CLI
// flags and passed through via dependency injection rather than global
// state.
//
// Design decision: a single flat struct instead of nested sub-structs.
// The option count is manageable, and nesting would add indirection
// without benefit.
type Config struct {
	// PoolCapacity is the per-host connection pool bound.
	PoolCapacity int

	// ConnectTimeout bounds dialing a new connection.
	ConnectTimeout time.Duration

	// ReadTimeout bounds waiting for response bytes in one exchange.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a request.
	WriteTimeout time.Duration

	// ScanBudget is the HTML prefix size scanned by the classifier.
	ScanBudget int

	// MaxConcurrent bounds in-flight probe tasks.
	MaxConcurrent int

	// RatePerSecond is the global request rate limit.
	RatePerSecond int

	// TaskTimeout is the per-task collection timeout in a batch.
	TaskTimeout time.Duration

	// BatchDeadline is the overall deadline for one batch.
	BatchDeadline time.Duration

	// BatchSize is the number of URLs per batch in the driving modes.
	BatchSize int

	// MinImageAgeDays gates downloads: images younger than this are
	// skipped. Unparseable dates count as age 0 (new).
	MinImageAgeDays int

	// MaxImageSize is the largest declared Content-Length to download.
	MaxImageSize int64

	// InsecureTLS accepts self-signed and otherwise invalid
	// certificates. Target hosts are untrusted third parties that
	// frequently serve broken chains; probing them at all requires
	// this relaxation. Kept as a flag so the intent is visible and
	// overridable.
	InsecureTLS bool

	// DeepScan re-examines no-image pages with the full HTML extractor
	// before giving up on them.
	DeepScan bool

	// DownloadDir is where downloaded images land.
	DownloadDir string

	// DBDir is the directory for the SQLite link store.
	DBDir string

	// Verbose enables debug-level logging.
	Verbose bool

	// Hostings maps profile names to hosting profiles. Loaded from the
	// built-in defaults, optionally overridden by a YAML profile file.
	Hostings map[string]Hosting
}

// NewConfig returns a Config with all defaults applied and the built-in
// hosting profiles loaded.
//
// Design decision: a constructor rather than zero values, because most
// defaults are non-zero and the constructor documents them in one place.
func NewConfig() *Config {
	return &Config{
		PoolCapacity:    DefaultPoolCapacity,
		ConnectTimeout:  DefaultConnectTimeout,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		ScanBudget:      DefaultScanBudget,
		MaxConcurrent:   DefaultMaxConcurrent,
		RatePerSecond:   DefaultRatePerSecond,
		TaskTimeout:     DefaultTaskTimeout,
		BatchDeadline:   DefaultBatchDeadline,
		BatchSize:       DefaultBatchSize,
		MinImageAgeDays: DefaultMinImageAge,
		MaxImageSize:    DefaultMaxImageSize,
		InsecureTLS:     true,
		DownloadDir:     "downloads",
		DBDir:           XDGDataDir(),
		Hostings:        DefaultHostings(),
	}
}

// XDGDataDir returns the XDG data directory for the prober.
// On Linux: ~/.local/share/parserlinks
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the prober.
// On Linux: ~/.config/parserlinks
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem
// found. Called once after flag parsing, before any network work.
func (c *Config) Validate() error {
	if c.PoolCapacity <= 0 {
		return ErrInvalidPoolCapacity
	}
	if c.ReadTimeout <= 0 || c.ConnectTimeout <= 0 || c.WriteTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ScanBudget <= 0 {
		return ErrInvalidScanBudget
	}
	if c.MaxConcurrent <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RatePerSecond <= 0 {
		return ErrInvalidRate
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MinImageAgeDays < 0 {
		return ErrInvalidImageAge
	}
	if c.MaxImageSize <= 0 {
		return ErrInvalidMaxImageSize
	}
	if len(c.Hostings) == 0 {
		return ErrNoHostings
	}
	return nil
}

// Hosting returns the named profile, reporting whether it exists.
func (c *Config) Hosting(name string) (Hosting, bool) {
	h, ok := c.Hostings[name]
	return h, ok
}
