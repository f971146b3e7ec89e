// Package fetcher loads a page over plain HTTP, for pages whose download
// buttons are ordinary links and need no script to resolve.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dtnitsch/release-scraper/pkg/caching"
	"github.com/go-resty/resty/v2"
)

type Fetcher struct {
	client *resty.Client
	cache  *caching.Cache
	logger *slog.Logger
}

type Option func(*Fetcher)

// WithCache serves repeated fetches of the same URL from cache.
func WithCache(c *caching.Cache) Option {
	return func(f *Fetcher) { f.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

func NewFetcher(userAgent string, timeout time.Duration, opts ...Option) *Fetcher {
	client := resty.New()
	if userAgent != "" {
		client.SetHeader("user-agent", userAgent)
	}
	client.SetTimeout(timeout)

	f := &Fetcher{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the body of url. It has the signature of browser.Loader.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		if data, ok := f.cache.Get(url); ok {
			f.logger.Debug("Page served from cache", "url", url)
			return data, nil
		}
	}

	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch HTML, status code: %d", res.StatusCode())
	}

	body := res.Body()
	if f.cache != nil {
		if err := f.cache.Set(url, body); err != nil {
			f.logger.Warn("failed to cache page", "url", url, "error", err)
		}
	}
	return body, nil
}
