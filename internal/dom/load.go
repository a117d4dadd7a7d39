package dom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Default fetch limits. Pages are fetched once per scan, so the limits
// only need to guard against pathological responses.
const (
	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies pageguard in HTTP requests.
	DefaultUserAgent = "PageGuard/1.0 (+https://github.com/pageguard/pageguard)"
)

// Load parses an HTML document from a reader.
func Load(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

// LoadString parses an HTML document from a string.
func LoadString(s string) (*goquery.Document, error) {
	return Load(strings.NewReader(s))
}

// Fetch downloads and parses an HTML document from a URL. The response
// body is decoded to UTF-8 based on the declared charset and truncated
// at maxBody bytes (DefaultMaxBodySize when maxBody is zero).
func Fetch(ctx context.Context, client *http.Client, url string, maxBody int64) (*goquery.Document, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body close

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	limited := io.LimitReader(resp.Body, maxBody)
	decoded, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode body of %s: %w", url, err)
	}

	return Load(decoded)
}
