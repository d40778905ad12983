// Package probe classifies candidate URLs with as few bytes as possible.
//
// The Classifier runs a single GET over a pooled connection and decides
// from the response headers alone when it can: a non-success status or
// an image content type never touches the body. Otherwise it reads at
// most a small prefix of the page, scanning after every chunk for an
// image reference, and aborts the transfer the moment it has an answer.
//
// The Engine sits above the Classifier: it owns one connection pool per
// endpoint, retries briefly when a pool is exhausted, converts every
// failure into a typed result instead of an error, and keeps atomic
// request and byte counters for throughput reporting.
package probe
