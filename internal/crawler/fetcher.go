package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/toytoons/scraper/internal/telemetry"
)

// Sentinel errors for non-retryable and exhausted fetches.
var (
	// ErrPolicyDenied marks a fetch refused by robots.txt. Never retried.
	ErrPolicyDenied = errors.New("fetch denied by robots policy")
	// ErrFetchExhausted marks a transport failure surviving all retries.
	ErrFetchExhausted = errors.New("fetch retries exhausted")
)

// FetcherConfig controls HTTPFetcher behavior.
type FetcherConfig struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	MaxPageBytes int64
}

// HTTPFetcher fetches one URL at a time through the politeness gate with
// bounded retries and exponential backoff. Any received HTTP response,
// regardless of status code, yields a RawDocument: a server error page is
// still informative downstream.
type HTTPFetcher struct {
	client *http.Client
	robots RobotsPolicy
	gate   SlotGate
	clock  Clock
	cfg    FetcherConfig
	logger *zap.Logger

	// backoff returns the wait before retrying the given zero-based attempt.
	backoff func(attempt int) time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewHTTPFetcher constructs a fetcher. The robots policy and gate are
// injected so tests can substitute fakes.
func NewHTTPFetcher(cfg FetcherConfig, robots RobotsPolicy, gate SlotGate, clock Clock, logger *zap.Logger) *HTTPFetcher {
	if cfg.MaxPageBytes <= 0 {
		cfg.MaxPageBytes = 4 << 20
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        64,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		robots:  robots,
		gate:    gate,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
		backoff: exponentialBackoff,
		sleep:   sleepCtx,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (RawDocument, error) {
	if !f.robots.Allowed(ctx, rawURL, f.cfg.UserAgent) {
		telemetry.CountPolicyDenied()
		f.logger.Warn("robots.txt disallows fetch", zap.String("url", rawURL))
		return RawDocument{}, fmt.Errorf("%s: %w", rawURL, ErrPolicyDenied)
	}

	if err := f.gate.WaitSlot(ctx, HostOf(rawURL)); err != nil {
		return RawDocument{}, fmt.Errorf("wait politeness slot: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		doc, err := f.attempt(ctx, rawURL)
		if err == nil {
			telemetry.CountPage(doc.StatusCode)
			if doc.StatusCode != http.StatusOK {
				f.logger.Warn("non-200 response",
					zap.String("url", rawURL), zap.Int("status", doc.StatusCode))
			} else {
				f.logger.Debug("fetched",
					zap.String("url", rawURL), zap.Int("bytes", len(doc.Body)))
			}
			return doc, nil
		}
		if ctx.Err() != nil {
			return RawDocument{}, fmt.Errorf("fetch %s: %w", rawURL, ctx.Err())
		}
		lastErr = err
		if attempt < f.cfg.MaxRetries {
			delay := f.backoff(attempt)
			telemetry.CountRetry()
			f.logger.Warn("fetch attempt failed; retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(err))
			if serr := f.sleep(ctx, delay); serr != nil {
				return RawDocument{}, fmt.Errorf("fetch %s: %w", rawURL, serr)
			}
		}
	}

	f.logger.Error("fetch failed after all attempts",
		zap.String("url", rawURL),
		zap.Int("attempts", f.cfg.MaxRetries+1),
		zap.Error(lastErr))
	return RawDocument{}, fmt.Errorf("%s after %d attempts: %w: %w",
		rawURL, f.cfg.MaxRetries+1, ErrFetchExhausted, lastErr)
}

func (f *HTTPFetcher) attempt(ctx context.Context, rawURL string) (RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return RawDocument{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return RawDocument{}, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Debug("failed to close response body", zap.Error(cerr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxPageBytes))
	if err != nil {
		return RawDocument{}, fmt.Errorf("read body: %w", err)
	}

	return RawDocument{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Headers:    CollapseHeaders(resp.Header),
		Body:       string(body),
		FetchedAt:  f.clock.Now(),
	}, nil
}

func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}
