package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"zonaprop_scraper/config"
)

// Fetcher returns the raw body of an absolute URL as text. Implementations
// own connection handling, headers and rate considerations.
type Fetcher interface {
	GetText(ctx context.Context, url string) (string, error)
}

// NewFetcher selects the fetch mechanism for a site profile.
func NewFetcher(siteCfg *config.SiteConfig, client *http.Client) Fetcher {
	switch siteCfg.Fetcher {
	case "browser":
		return NewBrowserFetcher()
	default:
		return NewHTTPFetcher(client)
	}
}

// HTTPFetcher fetches pages with a plain HTTP client and browser-like
// headers.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) GetText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "es-AR,es;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(body), nil
}
