// Package report renders processing statistics in several formats.
//
// A Report aggregates the per-hosting breakdown from the store with
// the most recent results. Writers render it as plain text for the
// terminal, JSON for machines, or Markdown for sharing; a MultiWriter
// fans one report out to several destinations.
package report
