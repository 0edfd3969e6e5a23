// Package summarize implements the multi-tier summarization strategy chain:
// an optional local-model tier falling back to a deterministic extractive
// tier, with chunked map-reduce handling for oversized input.
package summarize

import (
	"regexp"
	"strings"
)

// sentencePattern matches runs of text up to and including terminal
// punctuation, plus a trailing unterminated fragment.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+`)

// SplitSentences splits text at sentence boundaries. Text without terminal
// punctuation comes back as a single sentence, so non-empty input always
// yields at least one sentence.
func SplitSentences(text string) []string {
	matches := sentencePattern.FindAllString(text, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// ChunkBySentence packs sentences greedily into chunks no longer than limit.
// Sentences are never split: a single sentence longer than limit becomes its
// own oversized chunk.
func ChunkBySentence(text string, limit int) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	chunks := make([]string, 0, len(text)/limit+1)
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sentence) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// NarrowText reduces text to the paragraphs mentioning any of the given
// terms (case-insensitive). When no paragraph matches, the full text is kept.
// The result is truncated to limit bytes when limit is positive.
func NarrowText(text string, terms []string, limit int) string {
	lowered := make([]string, 0, len(terms))
	for _, term := range terms {
		if t := strings.ToLower(strings.TrimSpace(term)); t != "" {
			lowered = append(lowered, t)
		}
	}

	narrowed := text
	if len(lowered) > 0 {
		paragraphs := strings.Split(text, "\n\n")
		matching := make([]string, 0, len(paragraphs))
		for _, para := range paragraphs {
			paraLower := strings.ToLower(para)
			for _, term := range lowered {
				if strings.Contains(paraLower, term) {
					matching = append(matching, para)
					break
				}
			}
		}
		if len(matching) > 0 {
			narrowed = strings.Join(matching, "\n\n")
		}
	}

	if limit > 0 && len(narrowed) > limit {
		narrowed = narrowed[:limit]
	}
	return narrowed
}
