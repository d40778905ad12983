// Package log builds the prober's loggers on top of the standard slog
// package.
//
// The TruncatingHandler clips oversized string attributes before they
// reach the underlying handler. Probe tasks log response snippets and
// discovered URLs from untrusted pages; without clipping, a single
// hostile page can flood the log with megabytes of markup.
package log
