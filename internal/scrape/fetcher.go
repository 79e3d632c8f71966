package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/dwcoetzee/mototrack/internal/config"
	"github.com/go-resty/resty/v2"
)

// Fetcher wraps the shared HTTP client the live scrapers use. One GET per
// page, no retries; a failed variation is skipped, not retried.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher builds a Fetcher with the configured user agent and timeout
func NewFetcher(cfg config.HTTPConfig) *Fetcher {
	client := resty.New()
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetTimeout(cfg.Timeout())
	return &Fetcher{client: client}
}

// Document fetches a page and parses it for selector queries
func (f *Fetcher) Document(ctx context.Context, url string) (*goquery.Document, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// GetJSON fetches a URL and decodes the JSON response into out
func (f *Fetcher) GetJSON(ctx context.Context, url string, params map[string]string, out interface{}) error {
	res, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetHeader("Accept", "application/json").
		SetResult(out).
		Get(url)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", url, res.StatusCode())
	}
	return nil
}
