// Package parse turns fetched HTML into structured show and toyline records.
package parse

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const maxTitleLen = 200

// Content is what the extractor pulls out of a page before field parsing.
type Content struct {
	Title    string
	MainText string
	Meta     map[string]string
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// metaSelectors maps a meta key to the selectors tried in preference order.
// The attribute read is "content" for meta tags and "href" for links.
var metaSelectors = map[string][]string{
	"description": {`meta[name="description"]`, `meta[property="og:description"]`},
	"keywords":    {`meta[name="keywords"]`},
	"canonical":   {`link[rel="canonical"]`},
	"og_title":    {`meta[property="og:title"]`},
	"og_type":     {`meta[property="og:type"]`},
}

// ExtractContent runs readability over the raw HTML to isolate the main
// article, then pulls a title, the cleaned body text, and head metadata.
func ExtractContent(rawHTML, pageURL string) (Content, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return Content{}, fmt.Errorf("parse url %q: %w", pageURL, err)
	}

	fullDoc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Content{}, fmt.Errorf("parse html: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return Content{}, fmt.Errorf("extract article: %w", err)
	}

	mainDoc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return Content{}, fmt.Errorf("parse article html: %w", err)
	}
	mainDoc.Find("script, style").Remove()

	return Content{
		Title:    extractTitle(fullDoc, mainDoc, article.Title),
		MainText: CleanText(mainDoc.Text()),
		Meta:     extractMeta(fullDoc),
	}, nil
}

// extractTitle picks the best title from the candidates in preference order:
// page <title>, readability title, main-content h1, then the first longer
// heading.
func extractTitle(fullDoc, mainDoc *goquery.Document, articleTitle string) string {
	candidates := []string{
		fullDoc.Find("title").First().Text(),
		articleTitle,
		mainDoc.Find("h1").First().Text(),
	}
	mainDoc.Find("h1, h2, h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 5 {
			candidates = append(candidates, text)
			return false
		}
		return true
	})

	for _, candidate := range candidates {
		cleaned := CleanText(candidate)
		if len(cleaned) > 3 {
			if len(cleaned) > maxTitleLen {
				cleaned = cleaned[:maxTitleLen]
			}
			return cleaned
		}
	}
	return ""
}

func extractMeta(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	for key, selectors := range metaSelectors {
		for _, selector := range selectors {
			sel := doc.Find(selector).First()
			if sel.Length() == 0 {
				continue
			}
			content, ok := sel.Attr("content")
			if !ok {
				content, ok = sel.Attr("href")
			}
			if ok && strings.TrimSpace(content) != "" {
				meta[key] = strings.TrimSpace(content)
				break
			}
		}
	}
	return meta
}

// CleanText trims and collapses runs of whitespace to single spaces.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
