// Package caching keeps fetched download pages on disk for a while, so
// repeated static runs against the same page do not hit the site again.
package caching

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dtnitsch/release-scraper/pkg/storage"
)

// Cache stores page bodies keyed on the normalized page URL and the user
// agent that fetched them. A site may serve different markup per agent.
type Cache struct {
	store     *storage.Storage
	ttl       time.Duration
	userAgent string
	now       func() time.Time
}

// NewCache creates the cache directory if needed.
func NewCache(dir string, ttl time.Duration, userAgent string) (*Cache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		store:     storage.New(dir),
		ttl:       ttl,
		userAgent: userAgent,
		now:       time.Now,
	}, nil
}

func (c *Cache) key(pageURL string) string {
	h := sha256.New()
	h.Write([]byte(normalizeURL(pageURL)))
	h.Write([]byte{0})
	h.Write([]byte(c.userAgent))
	return hex.EncodeToString(h.Sum(nil)) + ".html"
}

// normalizeURL lowercases scheme and host and drops the fragment.
// Unparseable input is used as is.
func normalizeURL(pageURL string) string {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return pageURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment, u.RawFragment = "", ""
	return u.String()
}

// Get returns the cached page and true if it exists and has not expired.
func (c *Cache) Get(pageURL string) ([]byte, bool) {
	name := c.key(pageURL)
	stats, err := c.store.GetFileStats(name)
	if err != nil || c.now().Sub(stats.ModTime) > c.ttl {
		return nil, false
	}
	data, err := c.store.ReadFile(name)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a page. The write is atomic, so a concurrent Get never sees
// a partial body.
func (c *Cache) Set(pageURL string, data []byte) error {
	if err := c.store.SaveFile(c.key(pageURL), data); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}
