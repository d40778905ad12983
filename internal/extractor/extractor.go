package extractor

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
)

// DefaultFetchTimeout bounds one full-page fetch.
const DefaultFetchTimeout = 30 * time.Second

// scriptURLPatterns find image URLs embedded in inline JavaScript.
var scriptURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)['"](https?://[^\s"'<>]+?\.(?:jpg|jpeg|png|gif|webp|bmp|svg)(?:\?[^\s"'<>]*)?)['"]`),
	regexp.MustCompile(`(?i)https?://[^\s"'<>]+?\.(?:jpg|jpeg|png|gif|webp|bmp|svg)(?:\?[^\s"'<>]*)?`),
}

// imageExtensions marks URLs that look like image files.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg", ".ico"}

// imageHostDomains marks URLs on known image hosts even without an
// extension.
var imageHostDomains = []string{
	"imgbb.com", "ibb.co", "i.ibb.co",
	"postimages.org", "postimg.cc", "i.postimg.cc",
	"imgur.com", "i.imgur.com",
}

// chromeNames are substrings of URLs that are navigation chrome rather
// than content images.
var chromeNames = []string{"logo", "favicon", "icon", "brand", "header", "nav", "banner"}

// lazySrcAttributes are the attributes lazy-loading markup hides image
// URLs in, checked in order after plain src.
var lazySrcAttributes = []string{
	"src", "data-src", "data-lazy-src", "data-original",
	"data-srcset", "data-lazy", "data-image", "data-img", "srcset",
}

// metaSelectors are the social preview tags, most trustworthy first.
var metaSelectors = []string{
	"meta[property='og:image']",
	"meta[property='og:image:url']",
	"meta[name='twitter:image']",
	"meta[name='twitter:image:src']",
	"meta[property='image']",
	"meta[name='image']",
}

// Extractor fetches pages and extracts content image URLs from them.
type Extractor struct {
	// client fetches pages.
	client *http.Client

	// nextAgent rotates through config.UserAgents.
	nextAgent atomic.Uint64

	// insecureTLS controls certificate verification of the default
	// client.
	insecureTLS bool

	// logger is used for structured logging.
	logger *slog.Logger
}

// Option is a function that configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient replaces the default client. Intended for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Extractor) {
		e.client = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithInsecureTLS controls certificate verification of the default
// client. It has no effect when WithHTTPClient supplies a client.
func WithInsecureTLS(insecure bool) Option {
	return func(e *Extractor) {
		e.insecureTLS = insecure
	}
}

// New creates an Extractor with the given options.
func New(opts ...Option) *Extractor {
	e := &Extractor{insecureTLS: true}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = &http.Client{
			Timeout: DefaultFetchTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: e.insecureTLS}, //nolint:gosec // same untrusted-host stance as the probe pools
			},
		}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// ExtractFromURL fetches a page and returns the content image URLs it
// references, in priority order and deduplicated.
func (e *Extractor) ExtractFromURL(ctx context.Context, pageURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build page request: %w", err)
	}

	agents := config.UserAgents
	req.Header.Set("User-Agent", agents[e.nextAgent.Add(1)%uint64(len(agents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ru;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, pageURL)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page html: %w", err)
	}

	urls := e.Extract(doc, base)
	e.logger.Debug("extracted images from page",
		"url", pageURL,
		"count", len(urls),
	)
	return urls, nil
}

// Extract walks a parsed document and collects content image URLs
// resolved against base.
func (e *Extractor) Extract(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var urls []string

	add := func(ref string, filterChrome bool) {
		resolved := resolveURL(base, ref)
		if resolved == "" || !isImageURL(resolved) {
			return
		}
		if filterChrome && isChrome(resolved) {
			return
		}
		if !seen[resolved] {
			seen[resolved] = true
			urls = append(urls, resolved)
		}
	}

	// Meta tags name the page's primary image and skip the chrome
	// filter: a preview image called "banner" is still the content.
	for _, selector := range metaSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if content, ok := s.Attr("content"); ok {
				add(content, false)
			}
		})
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range lazySrcAttributes {
			val, ok := s.Attr(attr)
			if !ok || strings.TrimSpace(val) == "" {
				continue
			}
			if strings.Contains(attr, "srcset") || attr == "srcset" {
				for _, candidate := range parseSrcset(val) {
					add(candidate, true)
				}
				continue
			}
			add(val, true)
		}
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			add(href, true)
		}
	})

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		for _, pattern := range scriptURLPatterns {
			for _, match := range pattern.FindAllStringSubmatch(text, -1) {
				candidate := match[0]
				if len(match) > 1 {
					candidate = match[1]
				}
				add(candidate, true)
			}
		}
	})

	return urls
}

// parseSrcset splits a srcset attribute into its candidate URLs.
func parseSrcset(srcset string) []string {
	var urls []string
	for _, entry := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(entry))
		if len(fields) > 0 {
			urls = append(urls, fields[0])
		}
	}
	return urls
}

// resolveURL resolves ref against base, keeping only http(s) results.
func resolveURL(base *url.URL, ref string) string {
	resolved, err := base.Parse(strings.TrimSpace(ref))
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

// isImageURL reports whether a URL looks like an image by extension or
// by living on a known image host.
func isImageURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	for _, domain := range imageHostDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

// isChrome reports whether a URL names navigation chrome.
func isChrome(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, name := range chromeNames {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}
