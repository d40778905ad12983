// Package pipeline orchestrates probing, downloading, and persistence
// over batches of candidate URLs.
//
// The BatchProcessor runs each URL as its own task under a weighted
// semaphore and a global rate limiter. A batch has a deadline: when it
// fires, RunBatch returns the results completed so far and the
// stragglers finish detached, persisting and counting exactly once.
// The Runner drives the processor in continuous or fixed mode, pausing
// briefly between batches and logging aggregate statistics
// periodically.
package pipeline
