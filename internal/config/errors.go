package config

import "errors"

// Configuration validation errors returned by Config.Validate.
//
// Design decision: package-level sentinel errors rather than fresh
// instances, so callers can use errors.Is while still getting a
// human-readable message.
var (
	// ErrInvalidPoolCapacity is returned when the per-host pool bound
	// is not positive.
	ErrInvalidPoolCapacity = errors.New("invalid pool capacity: must be positive")

	// ErrInvalidTimeout is returned when any of the connect, read, or
	// write timeouts is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidScanBudget is returned when the HTML scan budget is not
	// positive.
	ErrInvalidScanBudget = errors.New("invalid scan budget: must be positive")

	// ErrInvalidConcurrency is returned when the in-flight task bound
	// is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidRate is returned when the request rate limit is not
	// positive.
	ErrInvalidRate = errors.New("invalid rate limit: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not
	// positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidImageAge is returned when the minimum image age is
	// negative. Zero means download everything.
	ErrInvalidImageAge = errors.New("invalid minimum image age: must be non-negative")

	// ErrInvalidMaxImageSize is returned when the download size cap is
	// not positive.
	ErrInvalidMaxImageSize = errors.New("invalid max image size: must be positive")

	// ErrNoHostings is returned when no hosting profile is configured.
	ErrNoHostings = errors.New("no hosting profiles configured")

	// ErrUnknownHosting is returned by callers resolving a profile name
	// that does not exist.
	ErrUnknownHosting = errors.New("unknown hosting profile")
)
