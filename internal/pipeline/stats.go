package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/Wtfthisman1/ParserLinks/internal/model"
)

// Stats accumulates process-wide counters across batches. Counters
// only grow; a restart is the only reset.
type Stats struct {
	processed  atomic.Int64
	downloaded atomic.Int64
	empty      atomic.Int64
	skipped    atomic.Int64
	errors     atomic.Int64

	start time.Time
}

// NewStats creates a Stats anchored at the current time.
func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

// Record counts one terminal result.
func (s *Stats) Record(status model.LinkStatus) {
	s.processed.Add(1)
	switch status {
	case model.StatusDownloaded:
		s.downloaded.Add(1)
	case model.StatusEmpty:
		s.empty.Add(1)
	case model.StatusSkipped:
		s.skipped.Add(1)
	case model.StatusError:
		s.errors.Add(1)
	}
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Processed  int64
	Downloaded int64
	Empty      int64
	Skipped    int64
	Errors     int64

	// Elapsed is the time since the stats were created.
	Elapsed time.Duration

	// PerSecond is the overall processing rate.
	PerSecond float64
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	elapsed := time.Since(s.start)
	processed := s.processed.Load()

	var rate float64
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(processed) / secs
	}

	return Snapshot{
		Processed:  processed,
		Downloaded: s.downloaded.Load(),
		Empty:      s.empty.Load(),
		Skipped:    s.skipped.Load(),
		Errors:     s.errors.Load(),
		Elapsed:    elapsed,
		PerSecond:  rate,
	}
}
