package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/toytoons/scraper/internal/listing"
)

// RecordStore persists parsed listings as one line-delimited JSON file.
// Saves rewrite the file in full through a temp file so an interrupted run
// never leaves a half-written record behind.
type RecordStore struct {
	path   string
	logger *zap.Logger
}

// NewRecordStore returns a store backed by the given JSONL path.
func NewRecordStore(path string, logger *zap.Logger) *RecordStore {
	return &RecordStore{path: path, logger: logger}
}

// Exists reports whether the record file is present and non-empty.
func (s *RecordStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Size() > 0
}

// SaveAll writes all listings, one JSON object per line.
func (s *RecordStore) SaveAll(listings []listing.Listing) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range listings {
		if err := enc.Encode(&listings[i]); err != nil {
			return fmt.Errorf("encode listing %q: %w", listings[i].Slug, err)
		}
	}
	if err := writeFileAtomic(s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("write records %s: %w", s.path, err)
	}
	s.logger.Debug("saved listings", zap.Int("count", len(listings)), zap.String("path", s.path))
	return nil
}

// LoadAll reads every listing, skipping malformed lines with a warning.
func (s *RecordStore) LoadAll() ([]listing.Listing, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []listing.Listing{}, nil
		}
		return nil, fmt.Errorf("open records %s: %w", s.path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			s.logger.Debug("failed to close record file", zap.Error(cerr))
		}
	}()

	listings := make([]listing.Listing, 0, 16)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 8<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var l listing.Listing
		if err := json.Unmarshal([]byte(text), &l); err != nil {
			s.logger.Warn("skipping malformed record line",
				zap.Int("line", line), zap.Error(err))
			continue
		}
		listings = append(listings, l)
	}
	if err := scanner.Err(); err != nil {
		return listings, fmt.Errorf("scan records: %w", err)
	}
	return listings, nil
}
