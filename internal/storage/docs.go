package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/toytoons/scraper/internal/crawler"
)

// DocumentStore keeps one JSON file per fetched document under a root
// directory, named by fetch timestamp plus a short hash of the source URL.
type DocumentStore struct {
	dir    string
	clock  crawler.Clock
	logger *zap.Logger
}

// NewDocumentStore creates the root directory if needed.
func NewDocumentStore(dir string, clock crawler.Clock, logger *zap.Logger) (*DocumentStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("document store dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create document dir %s: %w", dir, err)
	}
	if clock == nil {
		clock = crawler.SystemClock{}
	}
	return &DocumentStore{dir: dir, clock: clock, logger: logger}, nil
}

// Save implements crawler.DocumentSink. The document's FilePath is stamped
// before serialization so the persisted record points at itself.
func (s *DocumentStore) Save(ctx context.Context, doc *crawler.RawDocument) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	name := fmt.Sprintf("%s_%s.json",
		s.clock.Now().Format("20060102_150405"), crawler.HashURL(doc.URL))
	path := filepath.Join(s.dir, name)
	doc.FilePath = path

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := writeFileAtomic(path, payload); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	s.logger.Debug("saved raw document", zap.String("path", path))
	return nil
}

// LoadAll reads every persisted document, skipping unreadable files with a
// warning. Results are ordered by filename, which sorts by fetch time.
func (s *DocumentStore) LoadAll(ctx context.Context) ([]crawler.RawDocument, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []crawler.RawDocument{}, nil
		}
		return nil, fmt.Errorf("read document dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	docs := make([]crawler.RawDocument, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return docs, fmt.Errorf("context canceled: %w", err)
		}
		path := filepath.Join(s.dir, name)
		payload, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable document", zap.String("path", path), zap.Error(err))
			continue
		}
		var doc crawler.RawDocument
		if err := json.Unmarshal(payload, &doc); err != nil {
			s.logger.Warn("skipping corrupt document", zap.String("path", path), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Empty reports whether no documents have been persisted yet.
func (s *DocumentStore) Empty() bool {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return true
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			return false
		}
	}
	return true
}
