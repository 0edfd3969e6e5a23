package summarize

import (
	"context"
	"math"
	"sort"
	"strings"
)

// TextRank is the always-available extractive tier. It ranks sentences by
// word-overlap similarity using power iteration and returns the top-scoring
// sentences in their original order. For any non-empty input it produces a
// non-empty summary.
type TextRank struct {
	damping   float64
	epsilon   float64
	maxRounds int
}

// NewTextRank returns a ranker with standard damping.
func NewTextRank() *TextRank {
	return &TextRank{
		damping:   0.85,
		epsilon:   1e-4,
		maxRounds: 50,
	}
}

// Name implements Strategy.
func (t *TextRank) Name() string { return "textrank" }

// Summarize implements Strategy. It never fails except on empty input,
// which yields an empty summary.
func (t *TextRank) Summarize(_ context.Context, text string, sentenceCount int) (string, error) {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return "", nil
	}
	if sentenceCount <= 0 {
		sentenceCount = 1
	}
	if len(sentences) <= sentenceCount {
		return strings.Join(sentences, " "), nil
	}

	tokens := make([][]string, len(sentences))
	for i, s := range sentences {
		tokens[i] = tokenize(s)
	}

	scores := t.rank(tokens)

	type ranked struct {
		index int
		score float64
	}
	order := make([]ranked, len(scores))
	for i, score := range scores {
		order[i] = ranked{index: i, score: score}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].score > order[j].score })

	picked := make([]int, sentenceCount)
	for i := 0; i < sentenceCount; i++ {
		picked[i] = order[i].index
	}
	sort.Ints(picked)

	selected := make([]string, len(picked))
	for i, idx := range picked {
		selected[i] = sentences[idx]
	}
	return strings.Join(selected, " "), nil
}

func (t *TextRank) rank(tokens [][]string) []float64 {
	n := len(tokens)
	weights := make([][]float64, n)
	sums := make([]float64, n)
	for i := range weights {
		weights[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := similarity(tokens[i], tokens[j])
			weights[i][j] = w
			weights[j][i] = w
			sums[i] += w
			sums[j] += w
		}
	}

	scores := make([]float64, n)
	next := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0
	}
	for round := 0; round < t.maxRounds; round++ {
		var delta float64
		for i := 0; i < n; i++ {
			var acc float64
			for j := 0; j < n; j++ {
				if i == j || weights[j][i] == 0 || sums[j] == 0 {
					continue
				}
				acc += weights[j][i] / sums[j] * scores[j]
			}
			next[i] = (1 - t.damping) + t.damping*acc
			delta += math.Abs(next[i] - scores[i])
		}
		copy(scores, next)
		if delta < t.epsilon {
			break
		}
	}
	return scores
}

// similarity is word overlap normalized by sentence lengths, so long
// sentences do not dominate purely by volume.
func similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(a))
	for _, w := range a {
		seen[w] = struct{}{}
	}
	var overlap float64
	counted := make(map[string]struct{}, len(b))
	for _, w := range b {
		if _, ok := seen[w]; !ok {
			continue
		}
		if _, dup := counted[w]; dup {
			continue
		}
		counted[w] = struct{}{}
		overlap++
	}
	if overlap == 0 {
		return 0
	}
	norm := math.Log(float64(len(a))+1) + math.Log(float64(len(b))+1)
	if norm == 0 {
		return 0
	}
	return overlap / norm
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"this": {}, "to": {}, "was": {}, "were": {}, "which": {}, "with": {},
}

func tokenize(sentence string) []string {
	fields := strings.FieldsFunc(strings.ToLower(sentence), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	words := make([]string, 0, len(fields))
	for _, w := range fields {
		if _, stop := stopwords[w]; stop {
			continue
		}
		words = append(words, w)
	}
	return words
}
