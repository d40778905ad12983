package model

import "testing"

// TestProbeResultTargetURL tests download target selection.
func TestProbeResultTargetURL(t *testing.T) {
	t.Parallel()

	t.Run("prefers discovered image URL", func(t *testing.T) {
		t.Parallel()

		r := &ProbeResult{
			URL:      "https://postimg.cc/abc123",
			ImageURL: "https://i.postimg.cc/abc123/photo.jpg",
			Status:   ProbeImageReference,
		}
		if got := r.TargetURL(); got != "https://i.postimg.cc/abc123/photo.jpg" {
			t.Errorf("expected discovered URL, got %s", got)
		}
	})

	t.Run("falls back to probed URL", func(t *testing.T) {
		t.Parallel()

		r := &ProbeResult{
			URL:    "https://i.ibb.co/x/photo.png",
			Status: ProbeImageDetected,
		}
		if got := r.TargetURL(); got != "https://i.ibb.co/x/photo.png" {
			t.Errorf("expected probed URL, got %s", got)
		}
	})
}

// TestProbeResultPositive tests the download trigger predicate.
func TestProbeResultPositive(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status ProbeStatus
		want   bool
	}{
		{ProbeImageDetected, true},
		{ProbeImageReference, true},
		{ProbeNoImage, false},
		{ProbeFailed, false},
	}

	for _, tc := range cases {
		r := &ProbeResult{Status: tc.status}
		if got := r.Positive(); got != tc.want {
			t.Errorf("Positive() for %s = %v, want %v", tc.status, got, tc.want)
		}
	}
}

// TestLinkStatusValid tests status validation.
func TestLinkStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range []LinkStatus{StatusDownloaded, StatusSkipped, StatusEmpty, StatusError} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if LinkStatus("pending").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}
