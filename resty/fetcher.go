// Package resty provides an HTTP-based implementation of dirscrape.Fetcher
// for fetching static pages that don't require JavaScript rendering.
package resty

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/dirscrape"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// Ensure Fetcher implements dirscrape.Fetcher at compile time.
var _ dirscrape.Fetcher = (*Fetcher)(nil)

// browserHeaders mimic a desktop Chrome request so directory sites serve
// the same markup they serve a browser. Accept-Encoding is left to the
// transport, which decodes compressed responses transparently.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Cache-Control":             "max-age=0",
}

// Fetcher retrieves HTML content from URLs over plain HTTP.
// Unlike rod.Fetcher, this does not execute JavaScript and is suitable
// for static sites only. Redirects are followed.
type Fetcher struct {
	client  *resty.Client
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	client := resty.New()
	client.SetTimeout(f.timeout)
	client.SetHeaders(browserHeaders)
	f.client = client

	return f
}

// Fetch retrieves the HTML content from the given URL.
// Returns ENOTFOUND for 404 responses and EUNAVAILABLE for other
// non-2xx responses.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return "", dirscrape.Errorf(dirscrape.ENOTFOUND, "HTTP 404 for %s", url)
	}
	if !resp.IsSuccess() {
		return "", dirscrape.Errorf(dirscrape.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode(), url)
	}

	return decode(resp.Body(), resp.Header().Get("Content-Type")), nil
}

// decode converts a response body to UTF-8, following the Content-Type
// charset parameter or in-document meta hints. The HTML parser expects
// UTF-8 and older directory sites still serve windows-1252. Bodies that
// cannot be decoded are returned unchanged.
func decode(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// Close releases resources. For the HTTP fetcher this is a no-op since
// the underlying client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}
