package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"fbref-scraper/config"
	"fbref-scraper/metrics"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher implements the Fetcher interface using colly
type CollyFetcher struct {
	collector *colly.Collector
}

// NewCollyFetcher creates a new CollyFetcher instance
func NewCollyFetcher(cfg config.FetcherConfig) (*CollyFetcher, error) {
	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}

	// one request at a time with a fixed gap; clones share this rule
	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.Delay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set rate limit: %w", err)
	}

	return &CollyFetcher{
		collector: c,
	}, nil
}

// Fetch implements the Fetcher interface
func (cf *CollyFetcher) Fetch(ctx context.Context, url string) (string, error) {
	c := cf.collector.Clone()
	c.Context = ctx

	var body string
	var statusErr error
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			statusErr = &StatusError{URL: url, StatusCode: r.StatusCode}
		}
	})

	slog.Debug("fetching", "engine", "colly", "url", url)
	if err := c.Visit(url); err != nil {
		metrics.Fetches.WithLabelValues("colly", "error").Inc()
		if statusErr != nil {
			return "", statusErr
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", transportError(url, err)
	}
	c.Wait()

	metrics.Fetches.WithLabelValues("colly", "ok").Inc()
	return body, nil
}
