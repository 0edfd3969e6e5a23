// Package telemetry exposes Prometheus metrics for the scraper pipeline.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	pagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toytoons_pages_fetched_total",
			Help: "Total pages fetched, labeled by HTTP status class.",
		},
		[]string{"status_class"},
	)

	fetchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toytoons_fetch_retries_total",
			Help: "Total fetch attempts retried after a transport error.",
		},
	)

	policyDeniedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toytoons_policy_denied_total",
			Help: "Total fetches denied by robots.txt policy.",
		},
	)

	politenessWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "toytoons_politeness_wait_seconds",
			Help:    "Histogram of per-host politeness wait durations.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	summariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toytoons_summaries_total",
			Help: "Total summaries produced, labeled by strategy.",
		},
		[]string{"strategy"},
	)
)

// CountPage records one fetched page by status class (2xx, 3xx, ...).
func CountPage(statusCode int) {
	class := "unknown"
	if statusCode >= 100 && statusCode < 600 {
		class = strconv.Itoa(statusCode/100) + "xx"
	}
	pagesFetchedTotal.WithLabelValues(class).Inc()
}

// CountRetry records one retried fetch attempt.
func CountRetry() {
	fetchRetriesTotal.Inc()
}

// CountPolicyDenied records one robots.txt denial.
func CountPolicyDenied() {
	policyDeniedTotal.Inc()
}

// ObservePolitenessWait records time spent waiting on a host slot.
func ObservePolitenessWait(d time.Duration) {
	if d > 0 {
		politenessWaitSeconds.Observe(d.Seconds())
	}
}

// CountSummary records one summary produced by the named strategy.
func CountSummary(strategy string) {
	summariesTotal.WithLabelValues(strategy).Inc()
}

// Serve exposes /metrics on addr until ctx is canceled. It returns once the
// listener has shut down.
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics listener: %w", err)
	}
}
