package model

import (
	"sort"
	"time"
)

// ProcessingReport aggregates stored results for presentation. It is
// assembled from the store's per-hosting breakdown plus the most
// recent records, and handed to the report writers.
type ProcessingReport struct {
	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time `json:"generated_at"`

	// Hostings is the per-hosting status breakdown.
	Hostings map[string]HostingStats `json:"hostings"`

	// Recent holds the most recently processed records, newest first.
	Recent []LinkResult `json:"recent,omitempty"`
}

// NewProcessingReport creates a report from the store's breakdown and
// recent records.
func NewProcessingReport(hostings map[string]HostingStats, recent []LinkResult) *ProcessingReport {
	return &ProcessingReport{
		GeneratedAt: time.Now(),
		Hostings:    hostings,
		Recent:      recent,
	}
}

// HostingNames returns the hosting names in sorted order so output is
// stable across runs.
func (r *ProcessingReport) HostingNames() []string {
	names := make([]string, 0, len(r.Hostings))
	for name := range r.Hostings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Totals sums the per-hosting breakdowns into one overall breakdown.
func (r *ProcessingReport) Totals() HostingStats {
	var total HostingStats
	for _, stats := range r.Hostings {
		total.Total += stats.Total
		total.Downloaded += stats.Downloaded
		total.Empty += stats.Empty
		total.Skipped += stats.Skipped
		total.Errors += stats.Errors
	}
	return total
}

// HasResults reports whether any record has been stored at all.
func (r *ProcessingReport) HasResults() bool {
	return r.Totals().Total > 0
}
