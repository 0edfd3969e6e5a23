// Package pipeline sequences the crawl, parse, summarize, and export stages.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toytoons/scraper/internal/crawler"
	"github.com/toytoons/scraper/internal/listing"
	"github.com/toytoons/scraper/internal/parse"
	"github.com/toytoons/scraper/internal/summarize"
)

// Crawler fetches a batch of URLs under a concurrency bound.
type Crawler interface {
	CrawlAll(ctx context.Context, urls []string, maxConcurrency int) ([]crawler.RawDocument, error)
}

// DocumentStore is the durable home of raw fetched documents.
type DocumentStore interface {
	LoadAll(ctx context.Context) ([]crawler.RawDocument, error)
	Empty() bool
}

// RecordStore is the durable home of parsed listings.
type RecordStore interface {
	Exists() bool
	SaveAll(listings []listing.Listing) error
	LoadAll() ([]listing.Listing, error)
}

// Exporter writes the final output formats.
type Exporter interface {
	Export(listings []listing.Listing) ([]string, error)
}

// Parser turns one raw document into a listing, or nil when the page does
// not identify a show or toyline.
type Parser interface {
	ParseDocument(doc *crawler.RawDocument) (*listing.Listing, error)
}

// Summarizer condenses text to roughly sentenceCount sentences.
type Summarizer interface {
	Summarize(ctx context.Context, text string, sentenceCount int) (string, error)
}

// SeedLoader reads the seed URL list.
type SeedLoader func(path string) ([]string, error)

// Options are per-run knobs. Force flags override the skip-if-exists
// resume logic of individual stages.
type Options struct {
	MaxURLs        int
	ForceCrawl     bool
	ForceParse     bool
	ForceSummarize bool
}

// StageDecision records whether a stage runs and why. Computing it before
// stage execution keeps the resume logic testable on its own.
type StageDecision struct {
	Run    bool
	Reason string
}

// RunStats aggregates counters for one pipeline invocation.
type RunStats struct {
	RunID              string    `json:"run_id"`
	URLsCrawled        int       `json:"urls_crawled"`
	DocsParsed         int       `json:"docs_parsed"`
	RecordsCreated     int       `json:"records_created"`
	SummariesGenerated int       `json:"summaries_generated"`
	ExportsCreated     int       `json:"exports_created"`
	StartedAt          time.Time `json:"started_at"`
	CompletedAt        time.Time `json:"completed_at"`
}

// Duration is the wall-clock time of the finished run.
func (s RunStats) Duration() time.Duration {
	return s.CompletedAt.Sub(s.StartedAt)
}

// Config carries the stage parameters the orchestrator needs.
type Config struct {
	SeedsPath      string
	MaxConcurrency int
	SentenceCount  int
	ChunkSize      int
}

// Pipeline wires the stage collaborators together. It holds no state across
// runs beyond what lives in the stores.
type Pipeline struct {
	cfg        Config
	crawler    Crawler
	docs       DocumentStore
	records    RecordStore
	exporter   Exporter
	parser     Parser
	summarizer Summarizer
	loadSeeds  SeedLoader
	clock      crawler.Clock
	logger     *zap.Logger
}

// New builds a pipeline around its collaborators.
func New(cfg Config, cr Crawler, docs DocumentStore, records RecordStore,
	exporter Exporter, parser Parser, summarizer Summarizer,
	loadSeeds SeedLoader, clock crawler.Clock, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		crawler:    cr,
		docs:       docs,
		records:    records,
		exporter:   exporter,
		parser:     parser,
		summarizer: summarizer,
		loadSeeds:  loadSeeds,
		clock:      clock,
		logger:     logger,
	}
}

// Run executes crawl, parse, summarize, and export in order. Per-item
// failures are logged and skipped; only configuration problems, storage
// write failures, and cancellation abort the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (RunStats, error) {
	stats := RunStats{
		RunID:     uuid.NewString(),
		StartedAt: p.clock.Now(),
	}
	p.logger.Info("starting pipeline", zap.String("run_id", stats.RunID))

	docs, err := p.crawlStage(ctx, opts)
	if err != nil {
		return stats, err
	}
	stats.URLsCrawled = len(docs)
	if len(docs) == 0 {
		p.logger.Warn("no documents to process")
		stats.CompletedAt = p.clock.Now()
		return stats, nil
	}

	records, err := p.parseStage(ctx, docs, opts.ForceParse)
	if err != nil {
		return stats, err
	}
	stats.DocsParsed = len(docs)
	stats.RecordsCreated = len(records)
	if len(records) == 0 {
		p.logger.Warn("no records created")
		stats.CompletedAt = p.clock.Now()
		return stats, nil
	}

	records, err = p.summarizeStage(ctx, records, docs, opts.ForceSummarize)
	if err != nil {
		return stats, err
	}
	for i := range records {
		if records[i].DescriptionSummary != "" {
			stats.SummariesGenerated++
		}
	}

	paths, err := p.exportStage(records)
	if err != nil {
		return stats, err
	}
	stats.ExportsCreated = len(paths)

	stats.CompletedAt = p.clock.Now()
	p.logger.Info("pipeline completed",
		zap.String("run_id", stats.RunID),
		zap.Int("urls_crawled", stats.URLsCrawled),
		zap.Int("docs_parsed", stats.DocsParsed),
		zap.Int("records_created", stats.RecordsCreated),
		zap.Int("summaries_generated", stats.SummariesGenerated),
		zap.Int("exports_created", stats.ExportsCreated),
		zap.Duration("duration", stats.Duration()))
	return stats, nil
}

// CrawlDecision resolves the crawl stage skip condition.
func (p *Pipeline) CrawlDecision(force bool) StageDecision {
	if force {
		return StageDecision{Run: true, Reason: "crawl forced"}
	}
	if !p.docs.Empty() {
		return StageDecision{Run: false, Reason: "raw documents already present"}
	}
	return StageDecision{Run: true, Reason: "no raw documents on disk"}
}

// ParseDecision resolves the parse stage skip condition.
func (p *Pipeline) ParseDecision(force bool) StageDecision {
	if force {
		return StageDecision{Run: true, Reason: "parse forced"}
	}
	if p.records.Exists() {
		return StageDecision{Run: false, Reason: "records file already present"}
	}
	return StageDecision{Run: true, Reason: "no records on disk"}
}

// SummarizeDecision resolves the summarize stage skip condition against the
// records actually loaded.
func (p *Pipeline) SummarizeDecision(records []listing.Listing, force bool) StageDecision {
	if force {
		return StageDecision{Run: true, Reason: "summarize forced"}
	}
	for i := range records {
		if records[i].DescriptionSummary == "" {
			return StageDecision{Run: true, Reason: "records lack summaries"}
		}
	}
	return StageDecision{Run: false, Reason: "all records already summarized"}
}

func (p *Pipeline) crawlStage(ctx context.Context, opts Options) ([]crawler.RawDocument, error) {
	decision := p.CrawlDecision(opts.ForceCrawl)
	if !decision.Run {
		p.logger.Info("skipping crawl", zap.String("reason", decision.Reason))
		docs, err := p.docs.LoadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load existing documents: %w", err)
		}
		if opts.MaxURLs > 0 && len(docs) > opts.MaxURLs {
			docs = docs[:opts.MaxURLs]
		}
		return docs, nil
	}

	p.logger.Info("crawling", zap.String("reason", decision.Reason))
	urls, err := p.loadSeeds(p.cfg.SeedsPath)
	if err != nil {
		return nil, fmt.Errorf("load seeds: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no seed URLs in %s", p.cfg.SeedsPath)
	}
	if opts.MaxURLs > 0 && len(urls) > opts.MaxURLs {
		urls = urls[:opts.MaxURLs]
	}

	docs, err := p.crawler.CrawlAll(ctx, urls, p.cfg.MaxConcurrency)
	if err != nil {
		return nil, err
	}
	p.logger.Info("crawl finished", zap.Int("documents", len(docs)))
	return docs, nil
}

func (p *Pipeline) parseStage(ctx context.Context, docs []crawler.RawDocument, force bool) ([]listing.Listing, error) {
	decision := p.ParseDecision(force)
	if !decision.Run {
		p.logger.Info("skipping parse", zap.String("reason", decision.Reason))
		records, err := p.records.LoadAll()
		if err == nil && len(records) > 0 {
			return records, nil
		}
		if err != nil {
			p.logger.Warn("could not load existing records, reparsing", zap.Error(err))
		}
	} else {
		p.logger.Info("parsing", zap.String("reason", decision.Reason), zap.Int("documents", len(docs)))
	}

	records := make([]listing.Listing, 0, len(docs))
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l := p.parseOne(&docs[i])
		if l != nil {
			records = append(records, *l)
		}
	}
	p.logger.Info("parse finished",
		zap.Int("records", len(records)), zap.Int("documents", len(docs)))

	if err := p.records.SaveAll(records); err != nil {
		return nil, fmt.Errorf("save records: %w", err)
	}
	return records, nil
}

// parseOne isolates a single document's parse so a panic in the HTML
// handling cannot take down the batch.
func (p *Pipeline) parseOne(doc *crawler.RawDocument) (l *listing.Listing) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("parser panic", zap.String("url", doc.URL), zap.Any("panic", r))
			l = nil
		}
	}()

	l, err := p.parser.ParseDocument(doc)
	if err != nil {
		p.logger.Error("parse failed", zap.String("url", doc.URL), zap.Error(err))
		return nil
	}
	return l
}

func (p *Pipeline) summarizeStage(ctx context.Context, records []listing.Listing, docs []crawler.RawDocument, force bool) ([]listing.Listing, error) {
	decision := p.SummarizeDecision(records, force)
	if !decision.Run {
		p.logger.Info("skipping summarize", zap.String("reason", decision.Reason))
		return records, nil
	}
	p.logger.Info("summarizing", zap.String("reason", decision.Reason))

	byURL := make(map[string]*crawler.RawDocument, len(docs))
	for i := range docs {
		byURL[docs[i].URL] = &docs[i]
	}

	changed := false
	for i := range records {
		rec := &records[i]
		if rec.DescriptionSummary != "" && !force {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, ok := byURL[rec.SourceURL]
		if !ok {
			p.logger.Warn("no source document for record",
				zap.String("slug", rec.Slug), zap.String("url", rec.SourceURL))
			continue
		}

		text := p.relevantText(doc, rec)
		if text == "" {
			p.logger.Warn("no text to summarize", zap.String("slug", rec.Slug))
			continue
		}

		summary, err := p.summarizer.Summarize(ctx, text, p.cfg.SentenceCount)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Error("summarize failed", zap.String("slug", rec.Slug), zap.Error(err))
			continue
		}
		if summary != "" {
			rec.DescriptionSummary = summary
			changed = true
			p.logger.Debug("summary generated", zap.String("slug", rec.Slug))
		} else {
			p.logger.Warn("no summary produced", zap.String("slug", rec.Slug))
		}
	}

	// Persist summaries so the next run's skip check sees them.
	if changed {
		if err := p.records.SaveAll(records); err != nil {
			return nil, fmt.Errorf("save summarized records: %w", err)
		}
	}
	return records, nil
}

// relevantText narrows the document body to the paragraphs naming the show
// or toyline, bounded to three chunks worth of input.
func (p *Pipeline) relevantText(doc *crawler.RawDocument, rec *listing.Listing) string {
	limit := p.cfg.ChunkSize * 3

	content, err := parse.ExtractContent(doc.Body, doc.URL)
	if err != nil || content.MainText == "" {
		p.logger.Debug("content extraction failed, using raw body",
			zap.String("url", doc.URL), zap.Error(err))
		return summarize.NarrowText(doc.Body, rec.SearchTerms(), limit)
	}
	return summarize.NarrowText(content.MainText, rec.SearchTerms(), limit)
}

func (p *Pipeline) exportStage(records []listing.Listing) ([]string, error) {
	paths, err := p.exporter.Export(records)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	p.logger.Info("export finished", zap.Strings("paths", paths))
	return paths, nil
}

// CrawlOnly runs just the crawl stage, always fetching.
func (p *Pipeline) CrawlOnly(ctx context.Context, maxURLs int) ([]crawler.RawDocument, error) {
	return p.crawlStage(ctx, Options{MaxURLs: maxURLs, ForceCrawl: true})
}

// ParseOnly reparses the documents already on disk.
func (p *Pipeline) ParseOnly(ctx context.Context) ([]listing.Listing, error) {
	docs, err := p.docs.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents on disk, run crawl first")
	}
	return p.parseStage(ctx, docs, true)
}

// SummarizeOnly regenerates summaries for the records on disk and
// re-exports them.
func (p *Pipeline) SummarizeOnly(ctx context.Context) ([]listing.Listing, error) {
	docs, err := p.docs.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing documents: %w", err)
	}
	records, err := p.records.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records on disk, run parse first")
	}

	records, err = p.summarizeStage(ctx, records, docs, true)
	if err != nil {
		return nil, err
	}
	if _, err := p.exportStage(records); err != nil {
		return nil, err
	}
	return records, nil
}
