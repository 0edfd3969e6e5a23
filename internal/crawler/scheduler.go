package crawler

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Scheduler fans fetches out over a URL set under a counting admission
// limiter. Results surface in completion order, and every document is
// persisted before it joins the result list so a crash mid-batch cannot lose
// documents already fetched.
type Scheduler struct {
	fetcher Fetcher
	sink    DocumentSink
	logger  *zap.Logger
}

// NewScheduler constructs a Scheduler.
func NewScheduler(fetcher Fetcher, sink DocumentSink, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		fetcher: fetcher,
		sink:    sink,
		logger:  logger,
	}
}

// CrawlAll fetches urls with at most maxConcurrency requests in flight.
// Failed fetches (policy denials, exhausted retries, unwritable documents)
// are dropped from the result list without aborting the batch. The returned
// error is non-nil only when the context is canceled; the partial result list
// is still valid in that case.
func (s *Scheduler) CrawlAll(ctx context.Context, urls []string, maxConcurrency int) ([]RawDocument, error) {
	if len(urls) == 0 {
		return []RawDocument{}, nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	s.logger.Info("starting crawl",
		zap.Int("urls", len(urls)), zap.Int("concurrency", maxConcurrency))

	sem := semaphore.NewWeighted(int64(maxConcurrency))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		docs = make([]RawDocument, 0, len(urls))
	)

	for _, rawURL := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(rawURL string) {
			defer wg.Done()
			defer sem.Release(1)

			doc, err := s.fetcher.Fetch(ctx, rawURL)
			if err != nil {
				s.logger.Warn("dropping failed fetch", zap.String("url", rawURL), zap.Error(err))
				return
			}
			if err := s.sink.Save(ctx, &doc); err != nil {
				s.logger.Error("persist document failed", zap.String("url", rawURL), zap.Error(err))
				return
			}
			mu.Lock()
			docs = append(docs, doc)
			mu.Unlock()
		}(rawURL)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		s.logger.Warn("crawl interrupted", zap.Int("fetched", len(docs)), zap.Error(err))
		return docs, err
	}
	s.logger.Info("crawl completed", zap.Int("fetched", len(docs)), zap.Int("submitted", len(urls)))
	return docs, nil
}
