// Package listing defines the structured records produced by parsing.
package listing

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Listing is one show + toyline record extracted from a fetched page.
// The description summary is the only field mutated after creation; the
// summarize stage fills it exactly once unless forced to regenerate.
type Listing struct {
	ShowTitle   string `json:"show_title,omitempty"`
	ToylineName string `json:"toyline_name,omitempty"`
	Slug        string `json:"slug"`

	Era          string `json:"era,omitempty"`
	YearsAired   string `json:"years_aired,omitempty"`
	YearsToyline string `json:"years_toyline,omitempty"`

	Manufacturer  string `json:"manufacturer,omitempty"`
	Country       string `json:"country,omitempty"`
	StudioNetwork string `json:"studio_network,omitempty"`

	DescriptionSummary string   `json:"description_summary,omitempty"`
	NotableCharacters  []string `json:"notable_characters,omitempty"`

	SourceURL   string    `json:"source_url"`
	SourceTitle string    `json:"source_title,omitempty"`
	FirstSeen   time.Time `json:"first_seen"`

	ParseNotes []string `json:"parse_notes,omitempty"`
}

const maxSlugLen = 100

var nonSlugChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// GenerateSlug derives a stable URL-friendly identifier from the show and
// toyline names, falling back to the source domain when both are absent.
// The result is non-empty, at most 100 characters, contains only
// alphanumerics, hyphens, and underscores, and never has consecutive,
// leading, or trailing hyphens.
func (l Listing) GenerateSlug() string {
	parts := make([]string, 0, 2)
	if l.ShowTitle != "" {
		parts = append(parts, strings.ToLower(l.ShowTitle))
	}
	if l.ToylineName != "" && !strings.EqualFold(l.ToylineName, l.ShowTitle) {
		parts = append(parts, strings.ToLower(l.ToylineName))
	}
	if len(parts) == 0 {
		parts = append(parts, domainSlugPart(l.SourceURL))
	}

	slug := nonSlugChars.ReplaceAllString(strings.Join(parts, "-"), "-")

	// Collapse empty segments so hyphens never repeat.
	segments := make([]string, 0, 8)
	for _, seg := range strings.Split(slug, "-") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	slug = strings.Join(segments, "-")

	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		slug = "listing"
	}
	return slug
}

// EnsureSlug fills the slug field if it is not already set.
func (l *Listing) EnsureSlug() {
	if l.Slug == "" {
		l.Slug = l.GenerateSlug()
	}
}

// Identified reports whether the listing carries at least one identifying name.
func (l Listing) Identified() bool {
	return l.ShowTitle != "" || l.ToylineName != ""
}

// SearchTerms returns the identifying names used for relevance narrowing
// ahead of summarization.
func (l Listing) SearchTerms() []string {
	terms := make([]string, 0, 2)
	if l.ShowTitle != "" {
		terms = append(terms, l.ShowTitle)
	}
	if l.ToylineName != "" && !strings.EqualFold(l.ToylineName, l.ShowTitle) {
		terms = append(terms, l.ToylineName)
	}
	return terms
}

// Note appends a provenance note describing how a field was derived.
func (l *Listing) Note(note string) {
	if note == "" {
		return
	}
	l.ParseNotes = append(l.ParseNotes, note)
}

func domainSlugPart(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "listing"
	}
	return strings.ReplaceAll(strings.ToLower(u.Hostname()), ".", "-")
}
