package fetcher

import (
	"context"
	"log/slog"

	"fbref-scraper/config"
	"fbref-scraper/metrics"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// RestyFetcher implements the Fetcher interface with a plain HTTP client
type RestyFetcher struct {
	client *resty.Client
}

// NewRestyFetcher creates a new RestyFetcher instance
func NewRestyFetcher(cfg config.FetcherConfig) *RestyFetcher {
	client := resty.New()
	client.SetHeader("user-agent", cfg.UserAgent)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	// at most one request per delay; the first one goes out immediately
	limiter := rate.NewLimiter(rate.Every(cfg.Delay), 1)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &RestyFetcher{client: client}
}

// Fetch implements the Fetcher interface
func (rf *RestyFetcher) Fetch(ctx context.Context, url string) (string, error) {
	slog.Debug("fetching", "engine", "resty", "url", url)

	res, err := rf.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		metrics.Fetches.WithLabelValues("resty", "error").Inc()
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", transportError(url, err)
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		metrics.Fetches.WithLabelValues("resty", "error").Inc()
		return "", &StatusError{URL: url, StatusCode: res.StatusCode()}
	}

	metrics.Fetches.WithLabelValues("resty", "ok").Inc()
	return res.String(), nil
}
