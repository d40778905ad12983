package probe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
	"github.com/Wtfthisman1/ParserLinks/internal/model"
)

// DefaultScanBudget is the maximum number of body bytes the classifier
// reads from a non-image response before giving up on the page.
const DefaultScanBudget = 8 * 1024

// DefaultReadTimeout bounds reads on one exchange.
const DefaultReadTimeout = 15 * time.Second

// DefaultWriteTimeout bounds writing the request.
const DefaultWriteTimeout = 10 * time.Second

// scanChunkSize is the read granularity inside the budget. The scan
// runs over the whole accumulated prefix after each chunk so matches
// spanning chunk boundaries are still found.
const scanChunkSize = 2 * 1024

// imageURLPattern matches bare image URLs in page text, including
// protocol-relative ones.
var imageURLPattern = regexp.MustCompile(
	`(?i)(?:https?:)?//[^\s"'<>]+?\.(?:jpg|jpeg|png|gif|webp|bmp|svg)(?:\?[^\s"'<>]*)?`)

// Outcome carries the transport-level facts of one exchange that the
// result itself does not express.
type Outcome struct {
	// Reusable is true when the connection finished the exchange with
	// its stream intact and may serve another request.
	Reusable bool

	// EarlyAbort is true when the classifier decided before the body
	// was exhausted, so the remaining transfer was skipped.
	EarlyAbort bool
}

// Classifier decides whether a URL resolves to an image by reading the
// least it can get away with.
//
// Design decision: the request is written raw onto a pooled connection
// and the response parsed with http.ReadResponse instead of going
// through http.Client. The classifier must stop reading mid-body the
// moment it has an answer and must attribute every byte to its
// exchange; http.Client's transparent pooling, redirects, and
// decompression all get in the way of that accounting.
type Classifier struct {
	// scanBudget is the body prefix size scanned for image references.
	scanBudget int

	// readTimeout and writeTimeout bound the socket per exchange.
	readTimeout  time.Duration
	writeTimeout time.Duration

	// nextAgent rotates through config.UserAgents.
	nextAgent atomic.Uint64

	// logger is used for structured logging.
	logger *slog.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithScanBudget sets the body prefix budget in bytes.
func WithScanBudget(n int) ClassifierOption {
	return func(c *Classifier) {
		if n > 0 {
			c.scanBudget = n
		}
	}
}

// WithReadTimeout bounds reads on one exchange.
func WithReadTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		if d > 0 {
			c.readTimeout = d
		}
	}
}

// WithWriteTimeout bounds writing the request.
func WithWriteTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithClassifierLogger sets a custom logger.
func WithClassifierLogger(logger *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// NewClassifier creates a Classifier with the given options.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		scanBudget:   DefaultScanBudget,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Classify runs one GET exchange for pageURL over conn and classifies
// the response. It never returns an error; failures become results
// with status ProbeFailed. The caller owns releasing the connection
// and must honor Outcome.Reusable when doing so.
func (c *Classifier) Classify(ctx context.Context, conn net.Conn, pageURL *url.URL, hosting string) (*model.ProbeResult, Outcome) {
	result := &model.ProbeResult{
		URL:           pageURL.String(),
		Hosting:       hosting,
		ContentLength: -1,
	}

	if err := c.writeRequest(ctx, conn, pageURL); err != nil {
		result.Status = model.ProbeFailed
		result.FailureKind = model.FailureTransfer
		result.Err = err.Error()
		return result, Outcome{}
	}

	if err := conn.SetReadDeadline(readDeadline(ctx, c.readTimeout)); err != nil {
		result.Status = model.ProbeFailed
		result.FailureKind = model.FailureTransfer
		result.Err = err.Error()
		return result, Outcome{}
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		result.Status = model.ProbeFailed
		result.FailureKind = model.FailureProtocol
		result.Err = err.Error()
		return result, Outcome{}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close of a stream we may abandon

	result.ContentType = resp.Header.Get("Content-Type")
	result.ContentLength = resp.ContentLength
	result.LastModified = resp.Header.Get("Last-Modified")
	result.Date = resp.Header.Get("Date")

	// Classification from status line and headers alone.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Status = model.ProbeNoImage
		return result, Outcome{}
	}
	if strings.HasPrefix(strings.ToLower(result.ContentType), "image/") {
		result.Status = model.ProbeImageDetected
		return result, Outcome{EarlyAbort: true}
	}

	return c.scanBody(resp.Body, br, pageURL, result)
}

// scanBody reads up to the budget from the body, scanning the
// accumulated prefix after each chunk for an image reference.
func (c *Classifier) scanBody(body io.Reader, br *bufio.Reader, pageURL *url.URL, result *model.ProbeResult) (*model.ProbeResult, Outcome) {
	prefix := make([]byte, 0, c.scanBudget)
	chunk := make([]byte, scanChunkSize)

	for len(prefix) < c.scanBudget {
		room := c.scanBudget - len(prefix)
		if room > len(chunk) {
			room = len(chunk)
		}

		n, err := body.Read(chunk[:room])
		if n > 0 {
			prefix = append(prefix, chunk[:n]...)
			result.BodyBytes += int64(n)

			if ref := c.findImageReference(prefix, pageURL); ref != "" {
				result.Status = model.ProbeImageReference
				result.ImageURL = ref
				return result, Outcome{EarlyAbort: true}
			}
		}

		if err == io.EOF {
			// Body fully consumed: the stream is positioned at the next
			// response, so the connection may be reused as long as
			// nothing is left buffered past the body.
			result.Status = model.ProbeNoImage
			return result, Outcome{Reusable: br.Buffered() == 0}
		}
		if err != nil {
			result.Status = model.ProbeFailed
			result.FailureKind = classifyReadError(err)
			result.Err = err.Error()
			return result, Outcome{}
		}
	}

	// Budget exhausted without a verdict. The rest of the body is not
	// worth the bytes.
	result.Status = model.ProbeNoImage
	return result, Outcome{EarlyAbort: true}
}

// writeRequest builds and writes one browser-shaped GET request.
// Accept-Encoding is deliberately absent: identity bodies keep the
// byte counters honest and the prefix scannable.
func (c *Classifier) writeRequest(ctx context.Context, conn net.Conn, pageURL *url.URL) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return err
	}

	agents := config.UserAgents
	req.Header.Set("User-Agent", agents[c.nextAgent.Add(1)%uint64(len(agents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ru;q=0.8")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	if err := conn.SetWriteDeadline(readDeadline(ctx, c.writeTimeout)); err != nil {
		return err
	}
	return req.Write(conn)
}

// findImageReference scans an HTML prefix for the first image
// reference: img and meta tags first, then bare image URLs in text.
// Returns the reference resolved against the page URL, or "".
func (c *Classifier) findImageReference(prefix []byte, pageURL *url.URL) string {
	if ref := findMarkupImage(prefix); ref != "" {
		if resolved := resolveImageURL(pageURL, ref); resolved != "" {
			return resolved
		}
	}

	for _, match := range imageURLPattern.FindAll(prefix, -1) {
		if resolved := resolveImageURL(pageURL, string(match)); resolved != "" {
			return resolved
		}
	}
	return ""
}

// findMarkupImage tokenizes a (possibly truncated) HTML prefix looking
// for og:image/twitter:image meta tags or an img src attribute. The
// tokenizer tolerates the cut-off tail: it simply stops at the point
// of truncation.
func findMarkupImage(prefix []byte) string {
	z := html.NewTokenizer(bytes.NewReader(prefix))
	var firstImg string

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return firstImg
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		name, hasAttr := z.TagName()
		if !hasAttr {
			continue
		}

		switch string(name) {
		case "meta":
			var property, content string
			for {
				key, val, more := z.TagAttr()
				switch string(key) {
				case "property", "name":
					property = strings.ToLower(string(val))
				case "content":
					content = string(val)
				}
				if !more {
					break
				}
			}
			// Social preview tags point at the page's primary image and
			// outrank any img tag in the markup.
			if (property == "og:image" || property == "twitter:image") && content != "" {
				return content
			}
		case "img":
			for {
				key, val, more := z.TagAttr()
				if string(key) == "src" && len(val) > 0 && firstImg == "" {
					firstImg = string(val)
				}
				if !more {
					break
				}
			}
		}
	}
}

// resolveImageURL resolves ref against the page URL and keeps only
// absolute http(s) results.
func resolveImageURL(pageURL *url.URL, ref string) string {
	resolved, err := pageURL.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if resolved.Host == "" {
		return ""
	}
	return resolved.String()
}

// classifyReadError maps a body read error to a failure kind.
func classifyReadError(err error) model.FailureKind {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return model.FailureTransfer
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return model.FailureTransfer
	}
	return model.FailureProtocol
}

// readDeadline returns now+d, clamped to the context deadline when the
// context expires sooner.
func readDeadline(ctx context.Context, d time.Duration) time.Time {
	deadline := time.Now().Add(d)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}
