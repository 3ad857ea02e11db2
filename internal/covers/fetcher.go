package covers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Fetcher locates book cover images on the Open Library Covers API for
// catalog entries created without an image.
type Fetcher struct {
	BaseURL    string
	HTTPClient *http.Client

	// Open Library allows 100 req/5min, so ~1 req/sec is safe.
	limiter *rate.Limiter
}

// NewFetcher creates a new cover fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		BaseURL: "https://covers.openlibrary.org",
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// CoverURL returns a usable cover image URL for the given ISBN, or an
// error if Open Library has no real cover for it.
func (f *Fetcher) CoverURL(ctx context.Context, isbn string) (string, error) {
	isbn = CleanISBN(isbn)
	if isbn == "" {
		return "", fmt.Errorf("no ISBN to look up")
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	coverURL := fmt.Sprintf("%s/b/isbn/%s-L.jpg", f.BaseURL, isbn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create cover request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cover API returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read cover data: %w", err)
	}

	// Open Library returns a tiny placeholder when it has no cover.
	if len(imageData) < 1000 {
		return "", fmt.Errorf("cover image too small (likely placeholder)")
	}

	slog.Debug("Found cover image", "isbn", isbn, "url", coverURL)
	return coverURL, nil
}

// CleanISBN removes hyphens and normalizes ISBN
func CleanISBN(isbn string) string {
	return strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
}
