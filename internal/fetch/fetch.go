// Package fetch retrieves manifests and artifacts over HTTP.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kamusis/aipkg/internal/apperr"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "aipkg"

// Fetcher retrieves remote content by absolute URL.
type Fetcher interface {
	FetchText(ctx context.Context, url string) ([]byte, error)
	FetchBinary(ctx context.Context, url string, sizeHint int64) ([]byte, error)
}

// ProgressFunc is called while a binary download streams. total is the
// size hint or Content-Length, or <= 0 when unknown.
type ProgressFunc func(downloaded, total int64)

// HTTPFetcher is the net/http Fetcher.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	Progress  ProgressFunc
}

// New returns an HTTPFetcher with the given per-request timeout and user
// agent. Zero values select the defaults.
func New(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
	}
}

// FetchText downloads a manifest body.
func (f *HTTPFetcher) FetchText(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeNetwork, err, "read failed for %s", url)
	}
	return data, nil
}

// FetchBinary streams an artifact into memory, reporting progress.
func (f *HTTPFetcher) FetchBinary(ctx context.Context, url string, sizeHint int64) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	total := sizeHint
	if total <= 0 {
		total = resp.ContentLength
	}
	var out bytes.Buffer
	if n := preallocSize(sizeHint, resp.ContentLength); n > 0 {
		out.Grow(n)
	}

	var downloaded int64
	lastPrint := time.Now()
	buf := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
			downloaded += int64(n)
			if f.Progress != nil && time.Since(lastPrint) > 200*time.Millisecond {
				f.Progress(downloaded, total)
				lastPrint = time.Now()
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return nil, apperr.Wrap(apperr.CodeNetwork, rerr, "download read failed for %s", url)
		}
	}
	if f.Progress != nil {
		f.Progress(downloaded, total)
	}
	return out.Bytes(), nil
}

// maxPrealloc caps the buffer reserved before a download starts. Larger
// bodies still download; the buffer grows as data arrives.
const maxPrealloc = 64 << 20

// preallocSize is how many bytes to reserve for a body. The manifest size
// hint only narrows a known Content-Length; on its own it drives progress
// reporting and nothing else.
func preallocSize(hint, contentLength int64) int {
	n := contentLength
	if n <= 0 {
		return 0
	}
	if hint > 0 && hint < n {
		n = hint
	}
	if n > maxPrealloc {
		n = maxPrealloc
	}
	return int(n)
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	target := RewriteURL(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeNetwork, err, "invalid request for %s", target)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeNetwork, err, "fetch failed for %s", target)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		resp.Body.Close()
		msg := fmt.Sprintf("fetch failed for %s: %s", target, resp.Status)
		if s := strings.TrimSpace(string(body)); s != "" {
			msg += "\n" + s
		}
		return nil, apperr.New(apperr.CodeNetwork, "%s", msg)
	}
	return resp, nil
}

// RewriteURL turns github.com file-view links into raw content links.
func RewriteURL(u string) string {
	if strings.Contains(u, "github.com") && strings.Contains(u, "/blob/") {
		return strings.Replace(u, "/blob/", "/raw/", 1)
	}
	return u
}
