package download

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
	"github.com/Wtfthisman1/ParserLinks/internal/model"
)

// DefaultMaxImageSize caps a single transfer when no option is given.
const DefaultMaxImageSize = 50 * 1024 * 1024

// DefaultTransferTimeout bounds one full download.
const DefaultTransferTimeout = 60 * time.Second

// maxNameCollisions bounds the _N suffix search before giving up.
const maxNameCollisions = 1000

// ErrTooLarge is returned when a body exceeds the configured maximum
// size mid-transfer despite an acceptable declared length.
var ErrTooLarge = errors.New("download: image exceeds size limit")

// extensionByType maps declared content types to file extensions.
var extensionByType = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/bmp":     ".bmp",
	"image/svg+xml": ".svg",
}

// knownExtensions is the set accepted when falling back to the URL suffix.
var knownExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".svg":  true,
}

// Outcome describes what the download stage did with one probe result.
type Outcome struct {
	// Status is StatusDownloaded or StatusSkipped.
	Status model.LinkStatus

	// SkipReason explains a skipped outcome.
	SkipReason string

	// FilePath and FileSize describe the stored file when downloaded.
	FilePath string
	FileSize int64

	// AgeDays is the image age computed from the probe headers.
	AgeDays int

	// CaptureTime is the EXIF capture timestamp, when present.
	CaptureTime string
}

// Downloader streams accepted images to a directory.
type Downloader struct {
	// client performs the transfers.
	client *http.Client

	// dir is the destination directory, created on first use.
	dir string

	// minAgeDays skips images newer than this age.
	minAgeDays int

	// maxSize skips or aborts bodies larger than this.
	maxSize int64

	// insecureTLS controls certificate verification of the default
	// client.
	insecureTLS bool

	// nextAgent rotates through config.UserAgents.
	nextAgent atomic.Uint64

	// logger is used for structured logging.
	logger *slog.Logger
}

// Option is a function that configures a Downloader.
type Option func(*Downloader)

// WithDirectory sets the destination directory.
func WithDirectory(dir string) Option {
	return func(d *Downloader) {
		if dir != "" {
			d.dir = dir
		}
	}
}

// WithMinImageAge skips images younger than days.
func WithMinImageAge(days int) Option {
	return func(d *Downloader) {
		if days >= 0 {
			d.minAgeDays = days
		}
	}
}

// WithMaxImageSize caps transfers at n bytes.
func WithMaxImageSize(n int64) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.maxSize = n
		}
	}
}

// WithHTTPClient replaces the default client. Intended for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		d.client = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// WithInsecureTLS controls certificate verification of the default
// client. It has no effect when WithHTTPClient supplies a client.
func WithInsecureTLS(insecure bool) Option {
	return func(d *Downloader) {
		d.insecureTLS = insecure
	}
}

// New creates a Downloader with the given options.
//
// The default client skips TLS verification for the same reason the
// probe pools do: the target hosts are third parties with frequently
// broken certificates, and only public image bytes flow over the
// connection. Pass WithInsecureTLS(false) to verify certificates.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		dir:         "downloads",
		maxSize:     DefaultMaxImageSize,
		minAgeDays:  0,
		insecureTLS: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{
			Timeout: DefaultTransferTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: d.insecureTLS}, //nolint:gosec // see constructor doc
			},
		}
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Download applies the age and size policy to a positive probe result
// and, when the policy allows, transfers the image to disk.
// Policy rejections come back as skipped outcomes, not errors; errors
// mean the transfer itself failed.
func (d *Downloader) Download(ctx context.Context, probe *model.ProbeResult, hosting config.Hosting) (*Outcome, error) {
	age := ImageAgeDays(probe.LastModified, probe.Date)

	if age < d.minAgeDays {
		return &Outcome{
			Status:     model.StatusSkipped,
			SkipReason: fmt.Sprintf("image age %d days below minimum %d", age, d.minAgeDays),
			AgeDays:    age,
		}, nil
	}
	if probe.ContentLength > d.maxSize {
		return &Outcome{
			Status:     model.StatusSkipped,
			SkipReason: fmt.Sprintf("declared size %d exceeds limit %d", probe.ContentLength, d.maxSize),
			AgeDays:    age,
		}, nil
	}

	target := probe.TargetURL()
	filePath, size, err := d.transfer(ctx, target, probe.ContentType, hosting)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Status:   model.StatusDownloaded,
		FilePath: filePath,
		FileSize: size,
		AgeDays:  age,
	}
	if ct, err := CaptureTime(filePath); err == nil && ct != "" {
		outcome.CaptureTime = ct
	}

	d.logger.Debug("downloaded image",
		"url", target,
		"path", filePath,
		"size", size,
	)
	return outcome, nil
}

// transfer fetches the target URL and streams the body to a new file.
func (d *Downloader) transfer(ctx context.Context, target, probedType string, hosting config.Hosting) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to build download request: %w", err)
	}

	agents := config.UserAgents
	req.Header.Set("User-Agent", agents[d.nextAgent.Add(1)%uint64(len(agents))])
	if hosting.Referer != "" {
		req.Header.Set("Referer", hosting.Referer)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, target)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = probedType
	}

	file, filePath, err := d.createFile(target, contentType, hosting)
	if err != nil {
		return "", 0, err
	}

	// Read one byte beyond the limit so an oversized body is detected
	// rather than silently truncated.
	size, err := io.Copy(file, io.LimitReader(resp.Body, d.maxSize+1))
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err == nil && size > d.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(filePath)
		return "", 0, fmt.Errorf("failed to store %s: %w", target, err)
	}

	return filePath, size, nil
}

// createFile opens a collision-free destination file. O_EXCL makes the
// _N suffix search correct even with concurrent downloads of the same
// token.
func (d *Downloader) createFile(target, contentType string, hosting config.Hosting) (*os.File, string, error) {
	if err := os.MkdirAll(d.dir, 0750); err != nil {
		return nil, "", fmt.Errorf("failed to create download directory: %w", err)
	}

	base := hosting.Name + "_" + lastPathSegment(target)
	ext := ExtensionFor(contentType, target)

	for i := 0; i < maxNameCollisions; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		filePath := filepath.Join(d.dir, name)

		file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
		if err == nil {
			return file, filePath, nil
		}
		if !os.IsExist(err) {
			return nil, "", fmt.Errorf("failed to create %s: %w", filePath, err)
		}
	}
	return nil, "", fmt.Errorf("no free filename for %s after %d attempts", base, maxNameCollisions)
}

// ExtensionFor picks a file extension from the content type, falling
// back to the URL suffix and finally to .jpg.
func ExtensionFor(contentType, rawURL string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ext, ok := extensionByType[ct]; ok {
		return ext
	}

	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); knownExtensions[ext] {
			return ext
		}
	}
	return ".jpg"
}

// ImageAgeDays derives the image age in days from the Last-Modified
// header, falling back to Date. An absent or unparseable timestamp
// yields 0: with no evidence either way the image is treated as new.
func ImageAgeDays(lastModified, date string) int {
	for _, value := range []string{lastModified, date} {
		if value == "" {
			continue
		}
		t, err := http.ParseTime(value)
		if err != nil {
			continue
		}
		days := int(time.Since(t).Hours() / 24)
		if days < 0 {
			days = 0
		}
		return days
	}
	return 0
}

// lastPathSegment returns the URL's final path element, sanitized for
// use in a filename.
func lastPathSegment(rawURL string) string {
	segment := "image"
	if u, err := url.Parse(rawURL); err == nil {
		if s := path.Base(u.Path); s != "" && s != "." && s != "/" {
			segment = s
		}
	}
	// Strip any extension; ExtensionFor decides the real one.
	segment = strings.TrimSuffix(segment, path.Ext(segment))

	var b strings.Builder
	for _, c := range segment {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}
