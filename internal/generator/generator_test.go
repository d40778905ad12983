package generator

import (
	"strconv"
	"strings"
	"testing"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
)

// testHosting returns a small fixed profile for token assertions.
func testHosting() config.Hosting {
	return config.Hosting{
		Name:        "imgbb",
		Domain:      "ibb.co",
		BaseURL:     "https://ibb.co",
		TokenLength: 8,
		TokenChars:  "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ",
		CheckPath:   "/",
	}
}

// TestStrategy_Valid tests strategy validation.
func TestStrategy_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		strategy Strategy
		want     bool
	}{
		{StrategyRandom, true},
		{StrategyTimestamp, true},
		{StrategyHash, true},
		{StrategySequential, true},
		{StrategySmart, true},
		{Strategy("quantum"), false},
		{Strategy(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			t.Parallel()

			if got := tt.strategy.Valid(); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.strategy, got, tt.want)
			}
		})
	}
}

// TestGenerator_Generate tests uniform random candidate generation.
func TestGenerator_Generate(t *testing.T) {
	t.Parallel()

	hosting := testHosting()
	g := New(WithSeed(42))

	links := g.Generate(hosting, 50)
	if len(links) != 50 {
		t.Fatalf("len(links) = %d, want 50", len(links))
	}

	for _, link := range links {
		assertCandidate(t, link, hosting)
	}
}

// TestGenerator_Generate_NonPositiveCount tests the empty cases.
func TestGenerator_Generate_NonPositiveCount(t *testing.T) {
	t.Parallel()

	g := New(WithSeed(1))

	if links := g.Generate(testHosting(), 0); len(links) != 0 {
		t.Errorf("expected no links for count 0, got %d", len(links))
	}
	if links := g.Generate(testHosting(), -5); len(links) != 0 {
		t.Errorf("expected no links for negative count, got %d", len(links))
	}
}

// TestGenerator_GenerateWithStrategy tests every strategy yields valid candidates.
func TestGenerator_GenerateWithStrategy(t *testing.T) {
	t.Parallel()

	strategies := []Strategy{
		StrategyRandom,
		StrategyTimestamp,
		StrategyHash,
		StrategySequential,
		StrategySmart,
	}

	hosting := testHosting()

	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			t.Parallel()

			g := New(WithSeed(7))
			links := g.GenerateWithStrategy(hosting, 20, strategy)
			if len(links) != 20 {
				t.Fatalf("len(links) = %d, want 20", len(links))
			}
			for _, link := range links {
				assertCandidate(t, link, hosting)
			}
		})
	}
}

// TestGenerator_SequentialToken tests that sequential tokens embed the index.
func TestGenerator_SequentialToken(t *testing.T) {
	t.Parallel()

	hosting := testHosting()
	g := New(WithSeed(3))

	links := g.GenerateWithStrategy(hosting, 12, StrategySequential)
	for i, link := range links {
		token := strings.TrimPrefix(link, hosting.BaseURL+hosting.CheckPath)
		if !strings.HasPrefix(token, strconv.Itoa(i)) {
			t.Errorf("token %q does not start with index %d", token, i)
		}
	}
}

// TestGenerator_SequentialToken_LongIndex tests index truncation for tiny tokens.
func TestGenerator_SequentialToken_LongIndex(t *testing.T) {
	t.Parallel()

	hosting := testHosting().WithTokenLength(2)
	g := New(WithSeed(3))

	token := g.sequentialToken(hosting, 12345)
	if token != "12" {
		t.Errorf("sequentialToken = %q, want %q", token, "12")
	}
}

// TestGenerator_Deterministic tests that a fixed seed reproduces output.
func TestGenerator_Deterministic(t *testing.T) {
	t.Parallel()

	hosting := testHosting()

	first := New(WithSeed(99)).Generate(hosting, 10)
	second := New(WithSeed(99)).Generate(hosting, 10)

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("candidate %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}

// assertCandidate checks URL shape, token length, and alphabet membership.
func assertCandidate(t *testing.T, link string, hosting config.Hosting) {
	t.Helper()

	prefix := hosting.BaseURL + hosting.CheckPath
	if !strings.HasPrefix(link, prefix) {
		t.Fatalf("link %q does not start with %q", link, prefix)
	}

	token := strings.TrimPrefix(link, prefix)
	if len(token) != hosting.TokenLength {
		t.Errorf("token %q has length %d, want %d", token, len(token), hosting.TokenLength)
	}
	for _, c := range token {
		if !strings.ContainsRune(hosting.TokenChars, c) {
			t.Errorf("token %q contains %q outside the profile alphabet", token, c)
		}
	}
}
