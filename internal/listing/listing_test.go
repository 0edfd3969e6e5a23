package listing

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)

func TestGenerateSlugFromTitles(t *testing.T) {
	l := Listing{ShowTitle: "He-Man and the Masters of the Universe", ToylineName: "Masters of the Universe"}
	slug := l.GenerateSlug()
	require.Equal(t, "he-man-and-the-masters-of-the-universe-masters-of-the-universe", slug)
	require.Regexp(t, slugPattern, slug)
}

func TestGenerateSlugSkipsDuplicateToyline(t *testing.T) {
	l := Listing{ShowTitle: "ThunderCats", ToylineName: "thundercats"}
	require.Equal(t, "thundercats", l.GenerateSlug())
}

func TestGenerateSlugDomainFallback(t *testing.T) {
	l := Listing{SourceURL: "https://en.wikipedia.org/wiki/Some_Page"}
	require.Equal(t, "en-wikipedia-org", l.GenerateSlug())

	l = Listing{SourceURL: "::not a url::"}
	require.Equal(t, "listing", l.GenerateSlug())
}

func TestGenerateSlugIsDeterministicAndBounded(t *testing.T) {
	l := Listing{
		ShowTitle:   strings.Repeat("Mighty Robots! ", 12),
		ToylineName: "Robo Force (Ideal)",
	}
	first := l.GenerateSlug()
	second := l.GenerateSlug()
	require.Equal(t, first, second)
	require.LessOrEqual(t, len(first), 100)
	require.Regexp(t, slugPattern, first)
	require.False(t, strings.HasPrefix(first, "-"))
	require.False(t, strings.HasSuffix(first, "-"))
	require.NotContains(t, first, "--")
}

func TestGenerateSlugCollapsesPunctuation(t *testing.T) {
	l := Listing{ShowTitle: "G.I. Joe: A Real American Hero!!"}
	slug := l.GenerateSlug()
	require.Equal(t, "g-i-joe-a-real-american-hero", slug)
}

func TestEnsureSlugPreservesExisting(t *testing.T) {
	l := Listing{ShowTitle: "Jem", Slug: "custom-slug"}
	l.EnsureSlug()
	require.Equal(t, "custom-slug", l.Slug)

	l = Listing{ShowTitle: "Jem"}
	l.EnsureSlug()
	require.Equal(t, "jem", l.Slug)
}

func TestSearchTerms(t *testing.T) {
	l := Listing{ShowTitle: "Voltron", ToylineName: "Voltron"}
	require.Equal(t, []string{"Voltron"}, l.SearchTerms())

	l = Listing{ShowTitle: "Voltron", ToylineName: "Lionbot"}
	require.Equal(t, []string{"Voltron", "Lionbot"}, l.SearchTerms())

	l = Listing{}
	require.Empty(t, l.SearchTerms())
}
