package config

import (
	"errors"
	"testing"
	"time"
)

// TestNewConfig tests that the constructor applies defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	c := NewConfig()

	if c.PoolCapacity != DefaultPoolCapacity {
		t.Errorf("expected pool capacity %d, got %d", DefaultPoolCapacity, c.PoolCapacity)
	}
	if c.ReadTimeout != DefaultReadTimeout {
		t.Errorf("expected read timeout %s, got %s", DefaultReadTimeout, c.ReadTimeout)
	}
	if c.ScanBudget != DefaultScanBudget {
		t.Errorf("expected scan budget %d, got %d", DefaultScanBudget, c.ScanBudget)
	}
	if !c.InsecureTLS {
		t.Error("expected InsecureTLS to default to true")
	}
	if len(c.Hostings) == 0 {
		t.Error("expected built-in hosting profiles")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

// TestConfigValidate tests each validation failure.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero pool capacity", func(c *Config) { c.PoolCapacity = 0 }, ErrInvalidPoolCapacity},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }, ErrInvalidTimeout},
		{"negative connect timeout", func(c *Config) { c.ConnectTimeout = -time.Second }, ErrInvalidTimeout},
		{"zero scan budget", func(c *Config) { c.ScanBudget = 0 }, ErrInvalidScanBudget},
		{"zero concurrency", func(c *Config) { c.MaxConcurrent = 0 }, ErrInvalidConcurrency},
		{"zero rate", func(c *Config) { c.RatePerSecond = 0 }, ErrInvalidRate},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"negative image age", func(c *Config) { c.MinImageAgeDays = -1 }, ErrInvalidImageAge},
		{"zero max image size", func(c *Config) { c.MaxImageSize = 0 }, ErrInvalidMaxImageSize},
		{"no hostings", func(c *Config) { c.Hostings = nil }, ErrNoHostings},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := NewConfig()
			tc.mutate(c)

			if err := c.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// TestHostingBuildURL tests candidate URL construction.
func TestHostingBuildURL(t *testing.T) {
	t.Parallel()

	h := DefaultHostings()["postimages"]
	if got := h.BuildURL("aBc12345"); got != "https://postimg.cc/aBc12345" {
		t.Errorf("unexpected URL: %s", got)
	}
}

// TestHostingWithTokenLength tests that overrides copy instead of
// mutating the source profile.
func TestHostingWithTokenLength(t *testing.T) {
	t.Parallel()

	hostings := DefaultHostings()
	orig := hostings["imgbb"]

	override := orig.WithTokenLength(7)
	if override.TokenLength != 7 {
		t.Errorf("expected token length 7, got %d", override.TokenLength)
	}
	if orig.TokenLength != 8 {
		t.Errorf("source profile mutated: token length %d", orig.TokenLength)
	}
	if hostings["imgbb"].TokenLength != 8 {
		t.Error("registry entry mutated by override")
	}

	unchanged := orig.WithTokenLength(0)
	if unchanged.TokenLength != 8 {
		t.Errorf("non-positive override should be ignored, got %d", unchanged.TokenLength)
	}
}
