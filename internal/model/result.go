package model

import "time"

// ProbeResult is the outcome of classifying one URL. It is immutable
// once produced by the probe engine.
type ProbeResult struct {
	// URL is the candidate URL that was probed.
	URL string

	// Hosting is the hosting profile name the URL belongs to.
	Hosting string

	// Status is the classification outcome.
	Status ProbeStatus

	// ImageURL is set when Status is ProbeImageReference: the image URL
	// discovered inside the HTML prefix. Empty otherwise; the download
	// stage falls back to URL itself for ProbeImageDetected.
	ImageURL string

	// ContentType is the declared Content-Type of the response, when
	// headers were received.
	ContentType string

	// ContentLength is the declared byte length, or -1 when the server
	// did not declare one.
	ContentLength int64

	// LastModified and Date carry the raw header values used by the
	// download stage's age policy.
	LastModified string
	Date         string

	// BodyBytes is the number of response body bytes this exchange
	// consumed. Zero for header-only classifications.
	BodyBytes int64

	// FailureKind is set when Status is ProbeFailed.
	FailureKind FailureKind

	// Err is the failure detail when Status is ProbeFailed.
	Err string
}

// TargetURL returns the URL the download stage should fetch: the
// discovered image URL when one exists, else the probed URL.
func (r *ProbeResult) TargetURL() string {
	if r.ImageURL != "" {
		return r.ImageURL
	}
	return r.URL
}

// Positive reports whether the probe found an image to download.
func (r *ProbeResult) Positive() bool {
	return r.Status == ProbeImageDetected || r.Status == ProbeImageReference
}

// LinkResult is the persisted outcome record for one URL: the probe
// classification folded together with the optional download outcome.
type LinkResult struct {
	// URL is the candidate URL, the primary key of the record.
	URL string

	// Hosting is the hosting profile name.
	Hosting string

	// Status is the terminal status of the URL.
	Status LinkStatus

	// FilePath is the downloaded file's path when Status is
	// StatusDownloaded.
	FilePath string

	// FileSize is the observed byte size of the downloaded file.
	FileSize int64

	// ImageAgeDays is the image age computed from the Last-Modified or
	// Date header. Zero when neither header parsed.
	ImageAgeDays int

	// CaptureTime is the EXIF capture timestamp of the downloaded
	// image, when one was present. Best effort.
	CaptureTime string

	// ErrorMessage carries the failure detail when Status is StatusError.
	ErrorMessage string

	// ProcessedAt is when the record was produced.
	ProcessedAt time.Time
}

// HostingStats is the per-hosting breakdown returned by the store.
type HostingStats struct {
	Total      int
	Downloaded int
	Empty      int
	Skipped    int
	Errors     int
}
