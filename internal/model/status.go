package model

// ProbeStatus is the outcome of classifying a single URL.
type ProbeStatus string

// Probe classifications, in the order the classifier can reach them.
const (
	// ProbeImageDetected means the response itself was an image
	// (Content-Type: image/*). The body was not read.
	ProbeImageDetected ProbeStatus = "image-detected"

	// ProbeImageReference means an image URL was discovered inside the
	// HTML prefix of the response. The discovered URL differs from the
	// probed URL.
	ProbeImageReference ProbeStatus = "image-reference-found"

	// ProbeNoImage means the exchange completed but no image was found
	// within the scan budget. This is a terminal outcome, not an error.
	ProbeNoImage ProbeStatus = "no-image"

	// ProbeFailed means the exchange could not be completed: connect
	// failure, pool exhaustion, read timeout, or a protocol error.
	ProbeFailed ProbeStatus = "failed"
)

// FailureKind distinguishes why a probe failed. It is informational;
// the orchestrator treats all failures the same way (persist + count).
type FailureKind string

const (
	// FailureConnection covers DNS errors, refused connections, and
	// connect timeouts. The host was never spoken to.
	FailureConnection FailureKind = "connection"

	// FailureCapacity means the host's connection pool stayed at
	// capacity for the whole acquisition wait.
	FailureCapacity FailureKind = "capacity"

	// FailureProtocol covers malformed responses and write errors on an
	// established connection.
	FailureProtocol FailureKind = "protocol"

	// FailureTransfer covers errors during the download stage.
	FailureTransfer FailureKind = "transfer"
)

// LinkStatus is the terminal, persisted status of one candidate URL.
type LinkStatus string

const (
	// StatusDownloaded means an image was found and transferred to disk.
	StatusDownloaded LinkStatus = "downloaded"

	// StatusSkipped means no work was done: the URL was already
	// processed, or the age/size policy rejected the image.
	StatusSkipped LinkStatus = "skipped"

	// StatusEmpty means the URL resolved but no image was found.
	StatusEmpty LinkStatus = "empty"

	// StatusError means the probe or the transfer failed.
	StatusError LinkStatus = "error"
)

// Valid reports whether s is one of the persisted statuses.
func (s LinkStatus) Valid() bool {
	switch s {
	case StatusDownloaded, StatusSkipped, StatusEmpty, StatusError:
		return true
	}
	return false
}
