// Package download fetches images that a probe classified as worth
// keeping.
//
// Before any transfer the stage applies the operator's policy to the
// probe's headers: images younger than the configured minimum age and
// bodies larger than the configured maximum size are skipped without
// costing a byte. Accepted images stream straight to disk under a
// collision-safe name derived from the hosting and the URL's last path
// segment. After a successful download the file's EXIF capture time is
// extracted best effort.
package download
