package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"fbref-scraper/cache"
	"fbref-scraper/config"
)

// Fetcher interface defines the contract for fetching implementations
type Fetcher interface {
	// Fetch retrieves the HTML of one category page
	Fetch(ctx context.Context, url string) (string, error)
}

// ErrFetch is wrapped by every failed fetch, whatever the cause
var ErrFetch = errors.New("fetch failed")

// StatusError is returned when the site answers with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap makes every StatusError match ErrFetch
func (e *StatusError) Unwrap() error {
	return ErrFetch
}

// transportError wraps network level failures
func transportError(url string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
}

// Retryable reports whether a failed fetch is worth repeating: transport
// errors, rate limiting and server errors are; other statuses and
// cancellation are not.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return errors.Is(err, ErrFetch)
}

// New builds the fetcher described by cfg: the configured engine, wrapped
// with retries and then with the page cache.
func New(cfg config.FetcherConfig, pages cache.Cache) (Fetcher, error) {
	var engine Fetcher
	switch cfg.Engine {
	case "", "colly":
		f, err := NewCollyFetcher(cfg)
		if err != nil {
			return nil, err
		}
		engine = f
	case "resty":
		engine = NewRestyFetcher(cfg)
	default:
		return nil, fmt.Errorf("unknown fetcher engine %q", cfg.Engine)
	}

	var f Fetcher = engine
	if cfg.Retries > 0 {
		f = NewRetrying(f, cfg.Retries, cfg.Backoff)
	}
	if pages != nil {
		f = NewCached(f, pages)
	}
	return f, nil
}
