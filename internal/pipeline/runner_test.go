package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Wtfthisman1/ParserLinks/internal/generator"
	"github.com/Wtfthisman1/ParserLinks/internal/model"
)

// newTestRunner wires a Runner over fakes with a deterministic generator.
func newTestRunner(t *testing.T, prober *fakeProber, store *fakeStore, opts ...RunnerOption) *Runner {
	t.Helper()

	b := NewBatchProcessor(prober, &fakeDownloader{}, store,
		WithBatchDeadline(30*time.Second),
	)
	base := []RunnerOption{
		WithBatchPause(0),
		WithStrategy(generator.StrategyRandom),
	}
	return NewRunner(b, generator.New(generator.WithSeed(5)), append(base, opts...)...)
}

// TestRunner_RunFixed tests that exactly total candidates are processed.
func TestRunner_RunFixed(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{}
	store := newFakeStore()
	r := newTestRunner(t, prober, store)

	hosting := testHosting()
	hosting.TokenLength = 8
	hosting.TokenChars = "abcdefghijklmnopqrstuvwxyz0123456789"

	if err := r.RunFixed(context.Background(), hosting, 25, 10); err != nil {
		t.Fatalf("RunFixed returned error: %v", err)
	}

	if got := prober.calls.Load(); got != 25 {
		t.Errorf("probe calls = %d, want 25", got)
	}
	snap := r.processor.Stats().Snapshot()
	if snap.Processed != 25 {
		t.Errorf("Processed = %d, want 25", snap.Processed)
	}
}

// TestRunner_RunFixed_NonPositive tests the degenerate inputs.
func TestRunner_RunFixed_NonPositive(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{}
	r := newTestRunner(t, prober, newFakeStore())

	if err := r.RunFixed(context.Background(), testHosting(), 0, 10); err != nil {
		t.Errorf("unexpected error for zero total: %v", err)
	}
	if err := r.RunFixed(context.Background(), testHosting(), 10, 0); err != nil {
		t.Errorf("unexpected error for zero batch size: %v", err)
	}
	if prober.calls.Load() != 0 {
		t.Errorf("probe calls = %d, want 0", prober.calls.Load())
	}
}

// TestRunner_RunContinuous_StopsOnCancel tests the shutdown path.
func TestRunner_RunContinuous_StopsOnCancel(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{}
	r := newTestRunner(t, prober, newFakeStore(), WithBatchPause(time.Millisecond))

	hosting := testHosting()
	hosting.TokenLength = 8
	hosting.TokenChars = "abcdefghijklmnopqrstuvwxyz"

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := r.RunContinuous(ctx, hosting, 5)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunContinuous error = %v, want context deadline", err)
	}
	if prober.calls.Load() == 0 {
		t.Error("expected at least one batch before cancellation")
	}
}

// TestRunner_ProcessURLs tests chunking of caller-supplied URLs.
func TestRunner_ProcessURLs(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{}
	store := newFakeStore()
	r := newTestRunner(t, prober, store)

	urls := []string{
		"https://ibb.co/image-a",
		"https://ibb.co/nothing-b",
		"https://ibb.co/image-c",
		"https://ibb.co/broken-d",
		"https://ibb.co/nothing-e",
	}
	results := r.ProcessURLs(context.Background(), urls, testHosting(), 2)

	if len(results) != len(urls) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(urls))
	}
	if prober.calls.Load() != int64(len(urls)) {
		t.Errorf("probe calls = %d, want %d", prober.calls.Load(), len(urls))
	}

	counts := make(map[model.LinkStatus]int)
	for _, res := range results {
		counts[res.Status]++
	}
	if counts[model.StatusDownloaded] != 2 {
		t.Errorf("downloaded = %d, want 2", counts[model.StatusDownloaded])
	}
	if counts[model.StatusEmpty] != 2 {
		t.Errorf("empty = %d, want 2", counts[model.StatusEmpty])
	}
	if counts[model.StatusError] != 1 {
		t.Errorf("errors = %d, want 1", counts[model.StatusError])
	}
}

// TestRunner_ProcessURLs_DefaultBatch tests the single-batch fallback.
func TestRunner_ProcessURLs_DefaultBatch(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{}
	r := newTestRunner(t, prober, newFakeStore())

	urls := []string{"https://ibb.co/image-1", "https://ibb.co/image-2"}
	results := r.ProcessURLs(context.Background(), urls, testHosting(), 0)

	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}
}
