// Package metrics exposes Prometheus counters for fetches, the page cache and
// category outcomes.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Fetches counts category page fetches
	Fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbref_fetches_total",
			Help: "Category page fetches by engine and outcome",
		},
		[]string{"engine", "outcome"},
	)
	// CacheLookups counts page cache hits and misses
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbref_cache_lookups_total",
			Help: "Page cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)
	// Categories counts category outcomes
	Categories = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbref_categories_total",
			Help: "Category outcomes by category and stage (ok, fetch or extract)",
		},
		[]string{"category", "outcome"},
	)
)

// Run health
var (
	RunSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fbref_run_success",
			Help: "Whether the last run succeeded (1=success, 0=failure)",
		},
	)
	RunDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fbref_run_duration_seconds",
			Help: "Time taken for the last run in seconds",
		},
	)
)

func init() {
	prometheus.MustRegister(Fetches, CacheLookups, Categories)
	prometheus.MustRegister(RunSuccess, RunDuration)
}

// ObserveRun records the health of a finished run
func ObserveRun(start time.Time, err error) {
	RunDuration.Set(time.Since(start).Seconds())
	if err != nil {
		RunSuccess.Set(0)
		return
	}
	RunSuccess.Set(1)
}

// Handler serves the registered metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
