package summarize

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleText = `BraveStarr is a space western animated series set on the planet New Texas. ` +
	`The show follows Marshal BraveStarr as he keeps the peace in the frontier town of Fort Kerium. ` +
	`A line of action figures from Mattel accompanied the series. ` +
	`The toys featured BraveStarr, Thirty Thirty, and the outlaw Tex Hex. ` +
	`Collectors remember the oversized figures and the laser-firing backpacks. ` +
	`The series ran for a single season in the late 1980s.`

func TestTextRankReturnsRequestedSentenceCount(t *testing.T) {
	tr := NewTextRank()
	summary, err := tr.Summarize(context.Background(), sampleText, 2)
	require.NoError(t, err)
	require.NotEmpty(t, summary)
	require.LessOrEqual(t, len(SplitSentences(summary)), 2)
}

func TestTextRankSelectsExistingSentences(t *testing.T) {
	tr := NewTextRank()
	summary, err := tr.Summarize(context.Background(), sampleText, 2)
	require.NoError(t, err)
	for _, sentence := range SplitSentences(summary) {
		require.Contains(t, sampleText, sentence, "extractive output must reuse source sentences")
	}
}

func TestTextRankIsDeterministic(t *testing.T) {
	tr := NewTextRank()
	first, err := tr.Summarize(context.Background(), sampleText, 3)
	require.NoError(t, err)
	second, err := tr.Summarize(context.Background(), sampleText, 3)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestTextRankShortInputPassesThrough(t *testing.T) {
	tr := NewTextRank()
	summary, err := tr.Summarize(context.Background(), "Only one sentence here.", 2)
	require.NoError(t, err)
	require.Equal(t, "Only one sentence here.", summary)
}

func TestTextRankNonEmptyInputNeverYieldsEmpty(t *testing.T) {
	tr := NewTextRank()
	inputs := []string{
		"word",
		"no punctuation but plenty of words to rank here",
		strings.Repeat("Same sentence. ", 10),
		"1985. 1986. 1987.",
	}
	for _, input := range inputs {
		summary, err := tr.Summarize(context.Background(), input, 2)
		require.NoError(t, err)
		require.NotEmpty(t, summary, "input %q", input)
	}
}

func TestTextRankEmptyInputYieldsEmpty(t *testing.T) {
	tr := NewTextRank()
	summary, err := tr.Summarize(context.Background(), "   ", 2)
	require.NoError(t, err)
	require.Empty(t, summary)
}

func TestTextRankFiftyWordsTwoSentences(t *testing.T) {
	// 50 words across five sentences, target 2.
	text := `The robots defended the city from invaders every week. ` +
		`Children collected the die cast versions of every robot. ` +
		`The toy line sold millions of units across three continents. ` +
		`Critics praised the animation for its ambitious scope. ` +
		`Reruns kept the franchise alive well into the next decade.`
	tr := NewTextRank()
	summary, err := tr.Summarize(context.Background(), text, 2)
	require.NoError(t, err)
	require.NotEmpty(t, summary)
	require.LessOrEqual(t, len(SplitSentences(summary)), 2)
}
