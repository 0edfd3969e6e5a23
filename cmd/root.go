// Package cmd defines the CLI commands for the toytoons executable.
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toytoons/scraper/internal/config"
	"github.com/toytoons/scraper/internal/crawler"
	"github.com/toytoons/scraper/internal/logging"
	"github.com/toytoons/scraper/internal/parse"
	"github.com/toytoons/scraper/internal/pipeline"
	"github.com/toytoons/scraper/internal/storage"
	"github.com/toytoons/scraper/internal/summarize"
	"github.com/toytoons/scraper/internal/telemetry"
)

var (
	cfgFile string
	verbose bool
)

// app bundles what every subcommand needs after setup.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	pipeline *pipeline.Pipeline
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toytoons",
		Short: "Scrapes and summarizes 1980s cartoon and toyline pages",
		Long: `toytoons crawls a seed list of web pages about animated shows and
their toy lines, extracts structured listings, generates short text
summaries, and exports the results as JSON and CSV.

Stages resume from prior output: rerunning without force flags reuses
documents and records already on disk.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./toytoons.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging")

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newSummarizeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() error {
	return newRootCmd().Execute()
}

// setup loads config, builds the logger, and wires the pipeline.
func setup(ctx context.Context) (*app, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	development := cfg.Logging.Development || verbose
	logger, err := logging.New(development)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}

	if addr := cfg.Telemetry.MetricsAddr; addr != "" {
		go func() {
			if serveErr := telemetry.Serve(ctx, addr, logger); serveErr != nil {
				logger.Warn("metrics listener stopped", zap.Error(serveErr))
			}
		}()
	}

	cleanup := func() {
		_ = logger.Sync()
	}
	return &app{cfg: cfg, logger: logger, pipeline: p}, cleanup, nil
}

func buildPipeline(cfg config.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	clock := crawler.SystemClock{}

	robots := crawler.NewRobotsGate(logger.Named("robots"))
	gate := crawler.NewHostGate(cfg.Crawler.DelayMin(), cfg.Crawler.DelayMax(), clock)
	fetcher := crawler.NewHTTPFetcher(crawler.FetcherConfig{
		UserAgent:    cfg.Crawler.UserAgent,
		Timeout:      cfg.Crawler.Timeout(),
		MaxRetries:   cfg.Crawler.MaxRetries,
		MaxPageBytes: cfg.Crawler.MaxPageBytes,
	}, robots, gate, clock, logger.Named("fetcher"))

	docs, err := storage.NewDocumentStore(cfg.Storage.RawDir(), clock, logger.Named("docs"))
	if err != nil {
		return nil, fmt.Errorf("init document store: %w", err)
	}
	scheduler := crawler.NewScheduler(fetcher, docs, logger.Named("scheduler"))

	records := storage.NewRecordStore(cfg.Storage.ListingsJSONL(), logger.Named("records"))
	exporter := storage.NewExporter(cfg.Storage.ListingsJSON(), cfg.Storage.ListingsCSV(), logger.Named("export"))
	parser := parse.NewParser(logger.Named("parser"))

	strategies := make([]summarize.Strategy, 0, 2)
	if model := cfg.Summary.OllamaModel; model != "" {
		strategies = append(strategies, summarize.NewOllama(
			model, cfg.Summary.OllamaTimeout(), cfg.Summary.ChunkSize, logger.Named("ollama")))
	}
	strategies = append(strategies, summarize.NewTextRank())
	chain := summarize.NewChain(cfg.Summary.ChunkSize, logger.Named("summarize"), strategies...)

	p := pipeline.New(pipeline.Config{
		SeedsPath:      cfg.Storage.SeedsFile,
		MaxConcurrency: cfg.Crawler.Concurrency,
		SentenceCount:  cfg.Summary.Sentences,
		ChunkSize:      cfg.Summary.ChunkSize,
	}, scheduler, docs, records, exporter, parser, chain,
		storage.LoadSeeds, clock, logger.Named("pipeline"))

	return p, nil
}

// signalContext cancels on SIGINT and SIGTERM so in-flight fetches and
// summarizer subprocesses stop promptly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func logStats(logger *zap.Logger, stats pipeline.RunStats) {
	logger.Info("run finished",
		zap.String("run_id", stats.RunID),
		zap.Int("urls_crawled", stats.URLsCrawled),
		zap.Int("docs_parsed", stats.DocsParsed),
		zap.Int("records_created", stats.RecordsCreated),
		zap.Int("summaries_generated", stats.SummariesGenerated),
		zap.Int("exports_created", stats.ExportsCreated),
		zap.Duration("duration", stats.CompletedAt.Sub(stats.StartedAt).Round(time.Millisecond)))
}
