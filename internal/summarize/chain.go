package summarize

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/toytoons/scraper/internal/telemetry"
)

// Strategy produces a bounded-length digest of text. A strategy signals
// "fall through to the next tier" by returning an error or an empty string;
// no panics cross strategy boundaries.
type Strategy interface {
	Name() string
	Summarize(ctx context.Context, text string, sentenceCount int) (string, error)
}

// Chain runs strategies in order until one yields non-empty output, chunking
// oversized input at sentence boundaries first (map-reduce).
type Chain struct {
	strategies []Strategy
	chunkSize  int
	logger     *zap.Logger
}

// NewChain builds a chain. Strategies are consulted in the order given.
func NewChain(chunkSize int, logger *zap.Logger, strategies ...Strategy) *Chain {
	return &Chain{
		strategies: strategies,
		chunkSize:  chunkSize,
		logger:     logger,
	}
}

// Summarize condenses text to roughly sentenceCount sentences. Empty input
// yields empty output; an empty result for non-empty input is only possible
// when every chunk of an oversized document failed, which callers treat as
// "no summary available" rather than an error. The returned error is non-nil
// only on context cancellation.
func (c *Chain) Summarize(ctx context.Context, text string, sentenceCount int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	if len(text) <= c.chunkSize {
		return c.trySummarize(ctx, text, sentenceCount)
	}

	chunks := ChunkBySentence(text, c.chunkSize)
	if len(chunks) <= 1 {
		return c.trySummarize(ctx, text, sentenceCount)
	}
	c.logger.Debug("long text, summarizing chunks", zap.Int("chunks", len(chunks)))

	perChunk := sentenceCount / 2
	if perChunk < 1 {
		perChunk = 1
	}

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		part, err := c.trySummarize(ctx, chunk, perChunk)
		if err != nil {
			return "", err
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		c.logger.Warn("no chunk summaries generated")
		return "", nil
	}

	combined := strings.Join(parts, " ")
	if len(combined) > c.chunkSize {
		return c.trySummarize(ctx, combined, sentenceCount)
	}
	return combined, nil
}

// trySummarize walks the strategy tiers for one piece of text.
func (c *Chain) trySummarize(ctx context.Context, text string, sentenceCount int) (string, error) {
	for _, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		summary, err := strategy.Summarize(ctx, text, sentenceCount)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.logger.Debug("summarizer tier failed, falling through",
				zap.String("strategy", strategy.Name()), zap.Error(err))
			continue
		}
		if summary != "" {
			telemetry.CountSummary(strategy.Name())
			return summary, nil
		}
	}
	return "", nil
}
