package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/toytoons/scraper/internal/listing"
)

// Exporter serializes the full listing set to a JSON array and a flattened
// CSV. Both outputs are overwritten in full on every export.
type Exporter struct {
	jsonPath string
	csvPath  string
	logger   *zap.Logger
}

// NewExporter returns an exporter writing to the given paths.
func NewExporter(jsonPath, csvPath string, logger *zap.Logger) *Exporter {
	return &Exporter{jsonPath: jsonPath, csvPath: csvPath, logger: logger}
}

var csvHeader = []string{
	"slug",
	"show_title",
	"toyline_name",
	"era",
	"years_aired",
	"years_toyline",
	"manufacturer",
	"country",
	"studio_network",
	"description_summary",
	"notable_characters",
	"source_url",
	"source_title",
	"first_seen",
	"parse_notes",
}

// Export writes both output files and returns their paths.
func (e *Exporter) Export(listings []listing.Listing) ([]string, error) {
	if err := e.exportJSON(listings); err != nil {
		return nil, err
	}
	if err := e.exportCSV(listings); err != nil {
		return nil, err
	}
	e.logger.Info("exported listings",
		zap.Int("count", len(listings)),
		zap.String("json", e.jsonPath),
		zap.String("csv", e.csvPath))
	return []string{e.jsonPath, e.csvPath}, nil
}

func (e *Exporter) exportJSON(listings []listing.Listing) error {
	if listings == nil {
		listings = []listing.Listing{}
	}
	payload, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal listings: %w", err)
	}
	if err := writeFileAtomic(e.jsonPath, payload); err != nil {
		return fmt.Errorf("write json export: %w", err)
	}
	return nil
}

func (e *Exporter) exportCSV(listings []listing.Listing) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range listings {
		if err := w.Write(csvRow(&listings[i])); err != nil {
			return fmt.Errorf("write csv row %q: %w", listings[i].Slug, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := writeFileAtomic(e.csvPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write csv export: %w", err)
	}
	return nil
}

// csvRow flattens list-valued fields: characters joined with ", ", parse
// notes joined with " | ".
func csvRow(l *listing.Listing) []string {
	firstSeen := ""
	if !l.FirstSeen.IsZero() {
		firstSeen = l.FirstSeen.Format(time.RFC3339)
	}
	return []string{
		l.Slug,
		l.ShowTitle,
		l.ToylineName,
		l.Era,
		l.YearsAired,
		l.YearsToyline,
		l.Manufacturer,
		l.Country,
		l.StudioNetwork,
		l.DescriptionSummary,
		strings.Join(l.NotableCharacters, ", "),
		l.SourceURL,
		l.SourceTitle,
		firstSeen,
		strings.Join(l.ParseNotes, " | "),
	}
}
