package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fbref-scraper/cache"
	"fbref-scraper/config"

	"github.com/stretchr/testify/require"
)

func testConfig(engine string) config.FetcherConfig {
	return config.FetcherConfig{
		Engine:    engine,
		UserAgent: "fbref-scraper-test",
		Timeout:   5 * time.Second,
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><table id=%q></table></body></html>", r.UserAgent())
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("/limited", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func engines(t *testing.T) map[string]Fetcher {
	colly, err := NewCollyFetcher(testConfig("colly"))
	require.NoError(t, err)
	return map[string]Fetcher{
		"colly": colly,
		"resty": NewRestyFetcher(testConfig("resty")),
	}
}

func TestEngines(t *testing.T) {
	srv := newServer(t)

	for name, f := range engines(t) {
		t.Run(name, func(t *testing.T) {
			body, err := f.Fetch(context.Background(), srv.URL+"/ok")
			require.NoError(t, err)
			require.Contains(t, body, `<table id="fbref-scraper-test">`)

			// the same URL can be fetched again
			_, err = f.Fetch(context.Background(), srv.URL+"/ok")
			require.NoError(t, err)

			_, err = f.Fetch(context.Background(), srv.URL+"/missing")
			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr), "got %v", err)
			require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
			require.True(t, errors.Is(err, ErrFetch))
			require.False(t, Retryable(err))

			_, err = f.Fetch(context.Background(), srv.URL+"/limited")
			require.True(t, Retryable(err), "got %v", err)
		})
	}
}

func TestEnginesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/ok"
	srv.Close()

	for name, f := range engines(t) {
		t.Run(name, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), url)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrFetch), "got %v", err)
			require.True(t, Retryable(err))
		})
	}
}

type stubFetcher struct {
	calls int
	errs  []error
	body  string
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return s.body, nil
}

func TestRetrying(t *testing.T) {
	unavailable := &StatusError{URL: "u", StatusCode: http.StatusServiceUnavailable}
	notFound := &StatusError{URL: "u", StatusCode: http.StatusNotFound}

	tests := []struct {
		name    string
		errs    []error
		retries uint64
		calls   int
		wantErr error
	}{
		{name: "first attempt succeeds", calls: 1, retries: 2},
		{name: "recovers after server errors", errs: []error{unavailable, unavailable}, retries: 2, calls: 3},
		{name: "gives up", errs: []error{unavailable, unavailable, unavailable}, retries: 2, calls: 3, wantErr: unavailable},
		{name: "not found is permanent", errs: []error{notFound}, retries: 2, calls: 1, wantErr: notFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubFetcher{errs: tt.errs, body: "page"}
			f := NewRetrying(stub, tt.retries, time.Millisecond)

			body, err := f.Fetch(context.Background(), "u")
			require.Equal(t, tt.calls, stub.calls)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "page", body)
		})
	}
}

func TestRetryingStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubFetcher{errs: []error{transportError("u", errors.New("reset"))}}
	_, err := NewRetrying(stub, 5, time.Second).Fetch(ctx, "u")
	require.Error(t, err)
	require.LessOrEqual(t, stub.calls, 1)
}

func TestRetryable(t *testing.T) {
	require.False(t, Retryable(nil))
	require.False(t, Retryable(context.Canceled))
	require.False(t, Retryable(errors.New("other")))
	require.True(t, Retryable(transportError("u", errors.New("timeout"))))
	require.True(t, Retryable(&StatusError{StatusCode: 500}))
	require.False(t, Retryable(&StatusError{StatusCode: 403}))
}

func TestCached(t *testing.T) {
	stub := &stubFetcher{body: "page"}
	pages := cache.NewMemory(8, time.Minute)
	f := NewCached(stub, pages)

	for i := 0; i < 3; i++ {
		body, err := f.Fetch(context.Background(), "https://fbref.com/en/squads/x/2024/matchlogs/c9/misc/")
		require.NoError(t, err)
		require.Equal(t, "page", body)
	}
	require.Equal(t, 1, stub.calls)

	// equivalent URLs share the entry
	_, err := f.Fetch(context.Background(), "HTTPS://FBREF.com/en/squads/x/2024/matchlogs/c9/misc/#top")
	require.NoError(t, err)
	require.Equal(t, 1, stub.calls)
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	stub := &stubFetcher{errs: []error{&StatusError{StatusCode: 404}}, body: "page"}
	pages := cache.NewMemory(8, time.Minute)
	f := NewCached(stub, pages)

	_, err := f.Fetch(context.Background(), "https://fbref.com/a")
	require.Error(t, err)
	require.Equal(t, 0, pages.Len())

	body, err := f.Fetch(context.Background(), "https://fbref.com/a")
	require.NoError(t, err)
	require.Equal(t, "page", body)
	require.Equal(t, 2, stub.calls)
}

func TestNew(t *testing.T) {
	cfg := testConfig("resty")
	cfg.Retries = 2

	f, err := New(cfg, cache.Nop{})
	require.NoError(t, err)
	cached, ok := f.(*Cached)
	require.True(t, ok)
	retrying, ok := cached.next.(*Retrying)
	require.True(t, ok)
	require.IsType(t, &RestyFetcher{}, retrying.next)

	cfg = testConfig("colly")
	f, err = New(cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &CollyFetcher{}, f)

	_, err = New(testConfig("rod"), nil)
	require.Error(t, err)
}
