package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toytoons/scraper/internal/crawler"
	"github.com/toytoons/scraper/internal/listing"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestDocumentStoreSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	clock := fixedClock{now: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)}
	store, err := NewDocumentStore(dir, clock, zap.NewNop())
	require.NoError(t, err)
	require.True(t, store.Empty())

	doc := crawler.RawDocument{
		URL:        "https://example.org/shows/bravestarr",
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "text/html"},
		Body:       "<html>BraveStarr</html>",
		FetchedAt:  clock.now,
	}
	require.NoError(t, store.Save(context.Background(), &doc))
	require.False(t, store.Empty())
	require.NotEmpty(t, doc.FilePath)
	require.True(t, strings.HasPrefix(filepath.Base(doc.FilePath), "20260301_123000_"))

	loaded, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, doc.URL, loaded[0].URL)
	require.Equal(t, doc.Body, loaded[0].Body)
	require.Equal(t, doc.FilePath, loaded[0].FilePath)
}

func TestDocumentStoreSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDocumentStore(dir, crawler.SystemClock{}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101_000000_bad.json"), []byte("{not json"), 0o600))
	doc := crawler.RawDocument{URL: "https://example.org/ok", StatusCode: 200}
	require.NoError(t, store.Save(context.Background(), &doc))

	loaded, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "https://example.org/ok", loaded[0].URL)
}

func TestDocumentStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDocumentStore(dir, crawler.SystemClock{}, zap.NewNop())
	require.NoError(t, err)

	doc := crawler.RawDocument{URL: "https://example.org/x", StatusCode: 200}
	require.NoError(t, store.Save(context.Background(), &doc))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		require.NotContains(t, entry.Name(), ".tmp-")
	}
}

func TestRecordStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.jsonl")
	store := NewRecordStore(path, zap.NewNop())
	require.False(t, store.Exists())

	listings := []listing.Listing{
		{Slug: "bravestarr", ShowTitle: "BraveStarr", SourceURL: "https://example.org/a"},
		{Slug: "thundercats", ShowTitle: "ThunderCats", DescriptionSummary: "Feline heroes.", SourceURL: "https://example.org/b"},
	}
	require.NoError(t, store.SaveAll(listings))
	require.True(t, store.Exists())

	loaded, err := store.LoadAll()
	require.NoError(t, err)
	require.Equal(t, listings, loaded)
}

func TestRecordStoreSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.jsonl")
	content := `{"slug":"ok","source_url":"https://example.org","first_seen":"2026-01-01T00:00:00Z"}
garbage line
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store := NewRecordStore(path, zap.NewNop())
	loaded, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "ok", loaded[0].Slug)
}

func TestRecordStoreMissingFileIsEmpty(t *testing.T) {
	store := NewRecordStore(filepath.Join(t.TempDir(), "absent.jsonl"), zap.NewNop())
	loaded, err := store.LoadAll()
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestExporterWritesBothFormats(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "listings.json")
	csvPath := filepath.Join(dir, "listings.csv")
	exp := NewExporter(jsonPath, csvPath, zap.NewNop())

	listings := []listing.Listing{{
		Slug:              "he-man",
		ShowTitle:         "He-Man",
		NotableCharacters: []string{"He-Man", "Skeletor"},
		ParseNotes:        []string{"title from page title", "era from pattern"},
		SourceURL:         "https://example.org/heman",
		FirstSeen:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}

	paths, err := exp.Export(listings)
	require.NoError(t, err)
	require.Equal(t, []string{jsonPath, csvPath}, paths)

	var decoded []listing.Listing
	payload, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Equal(t, listings, decoded)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, csvHeader, rows[0])
	require.Equal(t, "he-man", rows[1][0])
	require.Equal(t, "He-Man, Skeletor", rows[1][10])
	require.Equal(t, "title from page title | era from pattern", rows[1][14])
}

func TestExporterEmptySetStillWritesFiles(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(filepath.Join(dir, "l.json"), filepath.Join(dir, "l.csv"), zap.NewNop())
	paths, err := exp.Export(nil)
	require.NoError(t, err)
	for _, p := range paths {
		_, err := os.Stat(p)
		require.NoError(t, err)
	}
}

func TestLoadSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	content := `# skip
https://example.org/a

  https://example.org/b
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	seeds, err := LoadSeeds(path)
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.org/a", "https://example.org/b"}, seeds)
}

func TestLoadSeedsMissingFile(t *testing.T) {
	_, err := LoadSeeds(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
