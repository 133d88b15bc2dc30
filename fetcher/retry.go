package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retrying repeats retryable fetch failures with exponential backoff
type Retrying struct {
	next    Fetcher
	retries uint64
	initial time.Duration
}

// NewRetrying wraps next with at most retries extra attempts
func NewRetrying(next Fetcher, retries uint64, initial time.Duration) *Retrying {
	return &Retrying{next: next, retries: retries, initial: initial}
}

// Fetch implements the Fetcher interface
func (r *Retrying) Fetch(ctx context.Context, url string) (string, error) {
	policy := backoff.NewExponentialBackOff()
	if r.initial > 0 {
		policy.InitialInterval = r.initial
	}
	policy.MaxElapsedTime = 0

	var body string
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		body, err = r.next.Fetch(ctx, url)
		if err != nil && !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("fetch failed, retrying", "url", url, "attempt", attempt, "wait", wait, "err", err)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, r.retries), ctx), notify)
	if err != nil {
		return "", err
	}
	return body, nil
}
