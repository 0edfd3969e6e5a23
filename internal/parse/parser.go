package parse

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/toytoons/scraper/internal/crawler"
	"github.com/toytoons/scraper/internal/listing"
)

const maxCharacters = 8

// eraPattern maps a text pattern to the era label it implies. Patterns are
// tried in order against lowercased text.
type eraPattern struct {
	re  *regexp.Regexp
	era string
}

var eraPatterns = []eraPattern{
	{regexp.MustCompile(`198[0-9]`), "1980s"},
	{regexp.MustCompile(`199[0-3]`), "early 1990s"},
	{regexp.MustCompile(`eighties`), "1980s"},
	{regexp.MustCompile(`\b80s\b`), "1980s"},
	{regexp.MustCompile(`early.?nineties`), "early 1990s"},
	{regexp.MustCompile(`early.?90s\b`), "early 1990s"},
}

var (
	siteNameSuffix = regexp.MustCompile(`\s*[-|•]\s*.*$`)

	showPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([A-Z][^.!?]*?(?:Show|Series|Chronicles|Adventures))\b`),
		regexp.MustCompile(`([A-Z][^(.!?]*?)\s*\((?:TV|television|animated)\s*(?:series|show)\)`),
		regexp.MustCompile(`([A-Z][^.!?]*?(?:Cartoon|Animation))\b`),
	}

	toylinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`([A-Z][^.!?]*?(?i:toys?|action figures?|figures?|toy ?line))\b`),
		regexp.MustCompile(`([A-Z][^.!?]*?(?:by|from)\s+(?:Hasbro|Mattel|Bandai|Kenner))\b`),
	}

	yearRange = `(\d{4}(?:\s*(?:[-–—]|to|through)\s*\d{4})?)`

	airedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)aired\s+(?:from\s+)?` + yearRange),
		regexp.MustCompile(`(?i)broadcast\s+(?:from\s+)?` + yearRange),
		regexp.MustCompile(`(?i)ran\s+(?:from\s+)?` + yearRange),
	}

	toylineYearPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)toys?\s+(?:produced|made|released)\s+(?:from\s+)?` + yearRange),
		regexp.MustCompile(`(?i)figures?\s+(?:produced|made|released)\s+(?:from\s+)?` + yearRange),
	}

	manufacturerPattern = regexp.MustCompile(`(?i)\b(Hasbro|Mattel|Bandai|Kenner|Playmates|LJN|Coleco|Tonka|Galoob)\b`)

	countryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:from|in|produced in|made in)\s+(United States|USA|US|America|Japan|Canada|UK|Britain)\b`),
		regexp.MustCompile(`(?i)\b(American|Japanese|Canadian|British)\s+(?:animated|cartoon|series|show)`),
	}

	studioPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:produced by|by|from)\s+([A-Z][^.!?]*?(?:Studios?|Productions?|Entertainment|Animation))\b`),
		regexp.MustCompile(`(?:aired on|on)\s+([A-Z][^.!?]*?(?:Network|Channel|Television|Broadcasting|TV))\b`),
	}

	capitalizedName = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
)

var countryNames = map[string]string{
	"american": "United States",
	"usa":      "United States",
	"us":       "United States",
	"america":  "United States",
	"japanese": "Japan",
	"japan":    "Japan",
	"canadian": "Canada",
	"canada":   "Canada",
	"british":  "United Kingdom",
	"uk":       "United Kingdom",
	"britain":  "United Kingdom",
}

// characterStopWords are capitalized words that are never character names.
var characterStopWords = map[string]struct{}{
	"The": {}, "And": {}, "Or": {}, "But": {}, "In": {}, "On": {}, "At": {},
	"To": {}, "For": {}, "Of": {}, "With": {}, "By": {}, "From": {}, "Up": {},
	"About": {}, "Into": {}, "Through": {}, "During": {}, "Before": {},
	"After": {}, "Above": {}, "Below": {}, "Between": {}, "Among": {},
	"This": {}, "That": {}, "These": {}, "Those": {}, "He": {}, "She": {},
	"It": {}, "They": {}, "We": {}, "You": {}, "His": {}, "Her": {},
	"Its": {}, "Their": {}, "Our": {}, "Your": {}, "Episode": {},
	"Season": {}, "Series": {}, "Show": {}, "Character": {},
	"Characters": {}, "Story": {}, "Plot": {},
}

// Parser builds listings out of raw fetched documents.
type Parser struct {
	logger *zap.Logger
}

func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseDocument parses one fetched page into a listing. It returns (nil, nil)
// when the page yields neither a show title nor a toyline name; such pages
// are skipped, not fatal.
func (p *Parser) ParseDocument(doc *crawler.RawDocument) (*listing.Listing, error) {
	content, err := ExtractContent(doc.Body, doc.URL)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", doc.URL, err)
	}

	l := &listing.Listing{
		SourceURL: doc.URL,
		FirstSeen: doc.FetchedAt,
	}

	l.ShowTitle = p.extractShowTitle(content, l)
	l.ToylineName = p.extractToylineName(content.MainText, l)
	if !l.Identified() {
		p.logger.Warn("no show title or toyline name found", zap.String("url", doc.URL))
		return nil, nil
	}

	text := content.MainText
	l.Era = extractEra(text, l)
	l.YearsAired = firstMatch(airedPatterns, text, l, "years aired")
	l.YearsToyline = firstMatch(toylineYearPatterns, text, l, "toyline years")
	l.Manufacturer = extractManufacturer(text, l)
	l.Country = extractCountry(text, l)
	l.StudioNetwork = extractStudioNetwork(text, l)
	l.NotableCharacters = ExtractCharacters(text, maxCharacters)

	l.SourceTitle = content.Title
	if l.SourceTitle == "" {
		l.SourceTitle = content.Meta["og_title"]
	}

	l.EnsureSlug()
	return l, nil
}

// extractShowTitle prefers the page title with any " - Site Name" suffix
// stripped, falling back to show-like phrases in the opening text.
func (p *Parser) extractShowTitle(content Content, l *listing.Listing) string {
	if content.Title != "" {
		title := CleanText(siteNameSuffix.ReplaceAllString(content.Title, ""))
		if len(title) > 3 {
			l.Note("Show title from page title: " + title)
			return title
		}
	}

	head := content.MainText
	if len(head) > 1000 {
		head = head[:1000]
	}
	for _, pattern := range showPatterns {
		if m := pattern.FindStringSubmatch(head); m != nil {
			title := CleanText(m[1])
			if len(title) > 3 {
				l.Note("Show title from text pattern: " + title)
				return title
			}
		}
	}
	return ""
}

func (p *Parser) extractToylineName(text string, l *listing.Listing) string {
	for _, pattern := range toylinePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			name := CleanText(m[1])
			if len(name) > 3 {
				l.Note("Toyline name from text: " + name)
				return name
			}
		}
	}
	if l.ShowTitle != "" {
		l.Note("Toyline name assumed same as show title")
		return l.ShowTitle
	}
	return ""
}

func extractEra(text string, l *listing.Listing) string {
	lower := strings.ToLower(text)
	for _, candidate := range eraPatterns {
		if candidate.re.MatchString(lower) {
			l.Note(fmt.Sprintf("Era %q from pattern: %s", candidate.era, candidate.re.String()))
			return candidate.era
		}
	}
	return ""
}

func firstMatch(patterns []*regexp.Regexp, text string, l *listing.Listing, field string) string {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			l.Note(fmt.Sprintf("%s from pattern: %s", field, m[1]))
			return m[1]
		}
	}
	return ""
}

func extractManufacturer(text string, l *listing.Listing) string {
	m := manufacturerPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	name := capitalize(m[1])
	l.Note("Manufacturer found: " + name)
	return name
}

func extractCountry(text string, l *listing.Listing) string {
	for _, pattern := range countryPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		country, ok := countryNames[strings.ToLower(m[1])]
		if !ok {
			country = capitalize(m[1])
		}
		l.Note("Country found: " + country)
		return country
	}
	return ""
}

func extractStudioNetwork(text string, l *listing.Listing) string {
	for _, pattern := range studioPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			studio := CleanText(m[1])
			if len(studio) > 3 {
				l.Note("Studio/Network found: " + studio)
				return studio
			}
		}
	}
	return ""
}

// ExtractCharacters pulls up to max capitalized-word phrases that look like
// character names, deduplicated case-insensitively and filtered through the
// stop word list.
func ExtractCharacters(text string, max int) []string {
	if text == "" {
		return nil
	}
	words := capitalizedName.FindAllString(text, -1)
	seen := make(map[string]struct{}, max)
	characters := make([]string, 0, max)
	for _, word := range words {
		if _, stop := characterStopWords[word]; stop || len(word) <= 2 {
			continue
		}
		key := strings.ToLower(word)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		characters = append(characters, word)
		if len(characters) >= max {
			break
		}
	}
	return characters
}

func capitalize(word string) string {
	if word == "" {
		return ""
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
