package probe

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Wtfthisman1/ParserLinks/internal/model"
)

// rawServer listens on loopback and answers every connection with the
// response produced by respond. respond receives the request line for
// assertions and returns the raw bytes to write back.
func rawServer(t *testing.T, respond func(requestLine string) []byte) *url.URL {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()

				r := bufio.NewReader(conn)
				requestLine, err := r.ReadString('\n')
				if err != nil {
					return
				}
				// Consume the rest of the request headers.
				for {
					line, err := r.ReadString('\n')
					if err != nil || line == "\r\n" {
						break
					}
				}
				_, _ = conn.Write(respond(strings.TrimSpace(requestLine)))
			}(conn)
		}
	}()

	u, err := url.Parse("http://" + ln.Addr().String() + "/abc12345")
	if err != nil {
		t.Fatalf("failed to parse server url: %v", err)
	}
	return u
}

// htmlResponse builds a 200 text/html response with an exact
// Content-Length so the body can be drained to a clean end.
func htmlResponse(body string) []byte {
	return []byte(fmt.Sprintf(
		"HTTP/1.1 200 OK\r\nContent-Type: text/html; charset=utf-8\r\nContent-Length: %d\r\n\r\n%s",
		len(body), body))
}

// classify dials the server and runs one exchange.
func classify(t *testing.T, c *Classifier, pageURL *url.URL) (*model.ProbeResult, Outcome) {
	t.Helper()

	conn, err := net.DialTimeout("tcp", pageURL.Host, 2*time.Second)
	if err != nil {
		t.Fatalf("failed to dial test server: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return c.Classify(context.Background(), conn, pageURL, "imgbb")
}

// TestClassifier_ImageContentType tests the header-only image verdict.
func TestClassifier_ImageContentType(t *testing.T) {
	t.Parallel()

	pageURL := rawServer(t, func(string) []byte {
		return []byte("HTTP/1.1 200 OK\r\n" +
			"Content-Type: image/jpeg\r\n" +
			"Content-Length: 123456\r\n" +
			"Last-Modified: Mon, 02 Jan 2006 15:04:05 GMT\r\n" +
			"Date: Tue, 03 Jan 2006 15:04:05 GMT\r\n" +
			"\r\n")
	})

	result, outcome := classify(t, NewClassifier(), pageURL)

	if result.Status != model.ProbeImageDetected {
		t.Fatalf("Status = %q, want %q (err=%s)", result.Status, model.ProbeImageDetected, result.Err)
	}
	if result.BodyBytes != 0 {
		t.Errorf("BodyBytes = %d, want 0 for header-only verdict", result.BodyBytes)
	}
	if !outcome.EarlyAbort {
		t.Error("expected EarlyAbort for image content type")
	}
	if outcome.Reusable {
		t.Error("aborted exchange must not mark the connection reusable")
	}
	if result.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", result.ContentType)
	}
	if result.ContentLength != 123456 {
		t.Errorf("ContentLength = %d, want 123456", result.ContentLength)
	}
	if result.LastModified == "" || result.Date == "" {
		t.Error("expected Last-Modified and Date headers to be recorded")
	}
}

// TestClassifier_ImgTagReference tests discovery of an img src in the prefix.
func TestClassifier_ImgTagReference(t *testing.T) {
	t.Parallel()

	pageURL := rawServer(t, func(string) []byte {
		return htmlResponse(`<html><body><img src="/images/photo.jpg" alt="x"></body></html>`)
	})

	result, outcome := classify(t, NewClassifier(), pageURL)

	if result.Status != model.ProbeImageReference {
		t.Fatalf("Status = %q, want %q (err=%s)", result.Status, model.ProbeImageReference, result.Err)
	}
	want := "http://" + pageURL.Host + "/images/photo.jpg"
	if result.ImageURL != want {
		t.Errorf("ImageURL = %q, want %q", result.ImageURL, want)
	}
	if !outcome.EarlyAbort {
		t.Error("expected EarlyAbort once the reference was found")
	}
}

// TestClassifier_MetaOutranksImg tests that og:image wins over img tags.
func TestClassifier_MetaOutranksImg(t *testing.T) {
	t.Parallel()

	pageURL := rawServer(t, func(string) []byte {
		return htmlResponse(`<html><head>` +
			`<meta property="og:image" content="https://cdn.example.com/main.png">` +
			`</head><body><img src="/thumbs/tiny.jpg"></body></html>`)
	})

	result, _ := classify(t, NewClassifier(), pageURL)

	if result.Status != model.ProbeImageReference {
		t.Fatalf("Status = %q, want %q", result.Status, model.ProbeImageReference)
	}
	if result.ImageURL != "https://cdn.example.com/main.png" {
		t.Errorf("ImageURL = %q, want the og:image target", result.ImageURL)
	}
}

// TestClassifier_BareImageURL tests the text fallback for pages without markup refs.
func TestClassifier_BareImageURL(t *testing.T) {
	t.Parallel()

	pageURL := rawServer(t, func(string) []byte {
		return htmlResponse(`<html><script>var u = "//cdn.example.com/pic.webp?s=1";</script></html>`)
	})

	result, _ := classify(t, NewClassifier(), pageURL)

	if result.Status != model.ProbeImageReference {
		t.Fatalf("Status = %q, want %q", result.Status, model.ProbeImageReference)
	}
	if result.ImageURL != "http://cdn.example.com/pic.webp?s=1" {
		t.Errorf("ImageURL = %q, want protocol-relative URL resolved against the page scheme", result.ImageURL)
	}
}

// TestClassifier_BudgetCap tests that a huge page costs at most the budget.
func TestClassifier_BudgetCap(t *testing.T) {
	t.Parallel()

	filler := strings.Repeat("<p>nothing to see here</p>\n", 40*1024)
	pageURL := rawServer(t, func(string) []byte {
		return htmlResponse(filler)
	})

	c := NewClassifier()
	result, outcome := classify(t, c, pageURL)

	if result.Status != model.ProbeNoImage {
		t.Fatalf("Status = %q, want %q", result.Status, model.ProbeNoImage)
	}
	if result.BodyBytes > DefaultScanBudget {
		t.Errorf("BodyBytes = %d, want at most %d", result.BodyBytes, DefaultScanBudget)
	}
	if !outcome.EarlyAbort {
		t.Error("expected EarlyAbort when the budget runs out")
	}
	if outcome.Reusable {
		t.Error("a truncated body must not mark the connection reusable")
	}
}

// TestClassifier_NonSuccessStatus tests that non-2xx is a header-only no-image.
func TestClassifier_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	pageURL := rawServer(t, func(string) []byte {
		return []byte("HTTP/1.1 404 Not Found\r\nContent-Type: text/html\r\nContent-Length: 9\r\n\r\nnot found")
	})

	result, outcome := classify(t, NewClassifier(), pageURL)

	if result.Status != model.ProbeNoImage {
		t.Fatalf("Status = %q, want %q", result.Status, model.ProbeNoImage)
	}
	if result.BodyBytes != 0 {
		t.Errorf("BodyBytes = %d, want 0 for status-line verdict", result.BodyBytes)
	}
	if outcome.EarlyAbort {
		t.Error("a skipped body is not an early abort")
	}
}

// TestClassifier_SmallPageDrained tests that a fully read body allows reuse.
func TestClassifier_SmallPageDrained(t *testing.T) {
	t.Parallel()

	pageURL := rawServer(t, func(string) []byte {
		return htmlResponse(`<html><body><p>gone</p></body></html>`)
	})

	result, outcome := classify(t, NewClassifier(), pageURL)

	if result.Status != model.ProbeNoImage {
		t.Fatalf("Status = %q, want %q", result.Status, model.ProbeNoImage)
	}
	if result.BodyBytes == 0 {
		t.Error("expected the small body to be read")
	}
	if !outcome.Reusable {
		t.Error("a cleanly drained exchange should leave the connection reusable")
	}
}

// TestClassifier_MalformedResponse tests the protocol failure path.
func TestClassifier_MalformedResponse(t *testing.T) {
	t.Parallel()

	pageURL := rawServer(t, func(string) []byte {
		return []byte("this is not http at all\r\n\r\n")
	})

	result, outcome := classify(t, NewClassifier(), pageURL)

	if result.Status != model.ProbeFailed {
		t.Fatalf("Status = %q, want %q", result.Status, model.ProbeFailed)
	}
	if result.FailureKind != model.FailureProtocol {
		t.Errorf("FailureKind = %q, want %q", result.FailureKind, model.FailureProtocol)
	}
	if outcome.Reusable {
		t.Error("a failed exchange must not mark the connection reusable")
	}
}

// TestFindMarkupImage tests tokenizer scanning over truncated HTML.
func TestFindMarkupImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{
			name:   "img src",
			prefix: `<div><img src="/a.png"></div>`,
			want:   "/a.png",
		},
		{
			name:   "og:image beats later img",
			prefix: `<meta property="og:image" content="https://x/y.jpg"><img src="/a.png">`,
			want:   "https://x/y.jpg",
		},
		{
			name:   "twitter:image via name attribute",
			prefix: `<meta name="twitter:image" content="https://x/t.jpg">`,
			want:   "https://x/t.jpg",
		},
		{
			name:   "truncated tail is tolerated",
			prefix: `<img src="/early.gif"><div class="trunc`,
			want:   "/early.gif",
		},
		{
			name:   "no reference",
			prefix: `<html><body><p>text only</p>`,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := findMarkupImage([]byte(tt.prefix)); got != tt.want {
				t.Errorf("findMarkupImage = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestResolveImageURL tests reference resolution and scheme filtering.
func TestResolveImageURL(t *testing.T) {
	t.Parallel()

	page, err := url.Parse("https://ibb.co/abc12345")
	if err != nil {
		t.Fatalf("failed to parse page url: %v", err)
	}

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{
			name: "relative path",
			ref:  "/images/x.jpg",
			want: "https://ibb.co/images/x.jpg",
		},
		{
			name: "protocol relative",
			ref:  "//cdn.ibb.co/x.jpg",
			want: "https://cdn.ibb.co/x.jpg",
		},
		{
			name: "absolute",
			ref:  "http://other.example/x.png",
			want: "http://other.example/x.png",
		},
		{
			name: "data uri rejected",
			ref:  "data:image/png;base64,AAAA",
			want: "",
		},
		{
			name: "javascript rejected",
			ref:  "javascript:void(0)",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := resolveImageURL(page, tt.ref); got != tt.want {
				t.Errorf("resolveImageURL(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}
