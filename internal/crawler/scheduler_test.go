package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	mu       sync.Mutex
	inFlight int32
	peak     int32
	delay    time.Duration
	failing  map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (RawDocument, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, cur) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return RawDocument{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	f.mu.Lock()
	err := f.failing[rawURL]
	f.mu.Unlock()
	if err != nil {
		return RawDocument{}, err
	}
	return RawDocument{URL: rawURL, StatusCode: 200, FetchedAt: time.Now()}, nil
}

type memorySink struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (s *memorySink) Save(_ context.Context, doc *RawDocument) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, doc.URL)
	return nil
}

func TestCrawlAllEmptyInput(t *testing.T) {
	s := NewScheduler(&fakeFetcher{}, &memorySink{}, zap.NewNop())
	docs, err := s.CrawlAll(context.Background(), nil, 4)
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestCrawlAllBoundsConcurrency(t *testing.T) {
	fetcher := &fakeFetcher{delay: 20 * time.Millisecond}
	s := NewScheduler(fetcher, &memorySink{}, zap.NewNop())

	urls := make([]string, 20)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.org/p/%d", i)
	}

	docs, err := s.CrawlAll(context.Background(), urls, 3)
	require.NoError(t, err)
	require.Len(t, docs, 20)
	require.LessOrEqual(t, atomic.LoadInt32(&fetcher.peak), int32(3),
		"more than maxConcurrency fetches were in flight")
}

func TestCrawlAllDropsFailedFetches(t *testing.T) {
	fetcher := &fakeFetcher{failing: map[string]error{
		"https://example.org/denied": fmt.Errorf("x: %w", ErrPolicyDenied),
		"https://example.org/flaky":  fmt.Errorf("x: %w", ErrFetchExhausted),
	}}
	sink := &memorySink{}
	s := NewScheduler(fetcher, sink, zap.NewNop())

	docs, err := s.CrawlAll(context.Background(), []string{
		"https://example.org/ok",
		"https://example.org/denied",
		"https://example.org/flaky",
	}, 2)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "https://example.org/ok", docs[0].URL)
	require.Equal(t, []string{"https://example.org/ok"}, sink.saved)
}

func TestCrawlAllPersistsBeforeReturning(t *testing.T) {
	sink := &memorySink{}
	s := NewScheduler(&fakeFetcher{}, sink, zap.NewNop())

	docs, err := s.CrawlAll(context.Background(), []string{"https://example.org/a", "https://example.org/b"}, 1)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.ElementsMatch(t, []string{"https://example.org/a", "https://example.org/b"}, sink.saved)
}

func TestCrawlAllDropsDocumentsThatFailToPersist(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	s := NewScheduler(&fakeFetcher{}, sink, zap.NewNop())

	docs, err := s.CrawlAll(context.Background(), []string{"https://example.org/a"}, 1)
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestCrawlAllStopsOnCancel(t *testing.T) {
	fetcher := &fakeFetcher{delay: 50 * time.Millisecond}
	s := NewScheduler(fetcher, &memorySink{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	urls := []string{"https://example.org/a", "https://example.org/b"}
	docs, err := s.CrawlAll(ctx, urls, 1)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, docs)
}
