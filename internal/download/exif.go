package download

import (
	"fmt"
	"os"

	exif "github.com/dsoprea/go-exif/v3"
)

// CaptureTime extracts the EXIF capture timestamp from an image file.
// It returns an empty string without error when the file simply has no
// EXIF block; errors mean the file could not be read at all.
func CaptureTime(path string) (string, error) {
	imageData, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image for exif scan: %w", err)
	}

	rawExif, err := exif.SearchAndExtractExif(imageData)
	if err != nil || rawExif == nil {
		// Most downloads are stripped or non-JPEG; no EXIF is the
		// normal case, not a failure.
		return "", nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return "", nil
	}

	// DateTimeOriginal is the shutter time; DateTime is the file's
	// modification time and only a fallback.
	var fallback string
	for _, entry := range entries {
		switch entry.TagName {
		case "DateTimeOriginal":
			return entry.Formatted, nil
		case "DateTime":
			if fallback == "" {
				fallback = entry.Formatted
			}
		}
	}
	return fallback, nil
}
