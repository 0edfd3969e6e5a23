package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStrategy struct {
	name    string
	out     string
	err     error
	calls   int
	lastLen int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Summarize(_ context.Context, text string, _ int) (string, error) {
	s.calls++
	s.lastLen = len(text)
	return s.out, s.err
}

func TestChainEmptyInput(t *testing.T) {
	chain := NewChain(4000, zap.NewNop(), NewTextRank())
	summary, err := chain.Summarize(context.Background(), "  \n ", 2)
	require.NoError(t, err)
	require.Empty(t, summary)
}

func TestChainPrefersFirstStrategy(t *testing.T) {
	primary := &stubStrategy{name: "primary", out: "Model summary."}
	fallback := &stubStrategy{name: "fallback", out: "Extractive summary."}
	chain := NewChain(4000, zap.NewNop(), primary, fallback)

	summary, err := chain.Summarize(context.Background(), "Some text.", 2)
	require.NoError(t, err)
	require.Equal(t, "Model summary.", summary)
	require.Zero(t, fallback.calls)
}

func TestChainFallsThroughOnErrorAndEmpty(t *testing.T) {
	failing := &stubStrategy{name: "failing", err: errors.New("model offline")}
	empty := &stubStrategy{name: "empty", out: ""}
	fallback := &stubStrategy{name: "fallback", out: "Extractive summary."}
	chain := NewChain(4000, zap.NewNop(), failing, empty, fallback)

	summary, err := chain.Summarize(context.Background(), "Some text.", 2)
	require.NoError(t, err)
	require.Equal(t, "Extractive summary.", summary)
	require.Equal(t, 1, failing.calls)
	require.Equal(t, 1, empty.calls)
}

func TestChainAllTiersFailYieldsEmptyNotError(t *testing.T) {
	failing := &stubStrategy{name: "failing", err: errors.New("down")}
	chain := NewChain(4000, zap.NewNop(), failing)

	summary, err := chain.Summarize(context.Background(), "Some text.", 2)
	require.NoError(t, err)
	require.Empty(t, summary)
}

func TestChainChunksOversizedInput(t *testing.T) {
	counting := &stubStrategy{name: "counting", out: "Chunk digest."}
	chain := NewChain(100, zap.NewNop(), counting)

	var sb strings.Builder
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&sb, "Sentence number %d about cartoon robots. ", i)
	}

	summary, err := chain.Summarize(context.Background(), sb.String(), 4)
	require.NoError(t, err)
	require.Greater(t, counting.calls, 1, "oversized input must be summarized chunk by chunk")
	require.Equal(t, strings.Repeat("Chunk digest. ", counting.calls-1)+"Chunk digest.", summary)
}

func TestChainRecombinesAndResummarizesLongResults(t *testing.T) {
	// Each chunk digest is itself long, forcing the reduce step.
	verbose := &stubStrategy{name: "verbose", out: strings.TrimSpace(strings.Repeat("Loud digest. ", 10))}
	chain := NewChain(100, zap.NewNop(), verbose)

	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "Sentence number %d with filler words attached. ", i)
	}

	summary, err := chain.Summarize(context.Background(), sb.String(), 4)
	require.NoError(t, err)
	require.Equal(t, verbose.out, summary, "the reduce step returns the re-summarized concatenation")
	require.Greater(t, verbose.lastLen, 100, "the final call must consume the combined chunk digests")
}

func TestChainWithTextRankEndToEnd(t *testing.T) {
	chain := NewChain(200, zap.NewNop(), NewTextRank())

	var sb strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "The %d robots guarded sector %d of the city. ", i, i)
	}

	summary, err := chain.Summarize(context.Background(), sb.String(), 2)
	require.NoError(t, err)
	require.NotEmpty(t, summary)
}

func TestChainHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	chain := NewChain(4000, zap.NewNop(), NewTextRank())
	_, err := chain.Summarize(ctx, "Some text.", 2)
	require.ErrorIs(t, err, context.Canceled)
}
