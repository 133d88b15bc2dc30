package fetcher

import (
	"context"
	"log/slog"
	"time"

	"fbref-scraper/cache"
	"fbref-scraper/metrics"
)

// Cached serves pages from a cache and stores successful fetches in it
type Cached struct {
	next  Fetcher
	pages cache.Cache
}

// NewCached wraps next with a page cache
func NewCached(next Fetcher, pages cache.Cache) *Cached {
	return &Cached{next: next, pages: pages}
}

// Fetch implements the Fetcher interface
func (c *Cached) Fetch(ctx context.Context, url string) (string, error) {
	key := cache.Key(url)
	if entry, ok := c.pages.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		slog.Debug("cache hit", "url", url, "fetched_at", entry.FetchedAt)
		return entry.Markup, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	markup, err := c.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	c.pages.Set(key, cache.Entry{Markup: markup, FetchedAt: time.Now()})
	return markup, nil
}
