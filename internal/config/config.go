// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all scraper configuration knobs loaded via Viper.
type Config struct {
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// CrawlerConfig governs fetch politeness and concurrency.
type CrawlerConfig struct {
	UserAgent       string  `mapstructure:"user_agent"`
	DelayMinSeconds float64 `mapstructure:"delay_min_seconds"`
	DelayMaxSeconds float64 `mapstructure:"delay_max_seconds"`
	Concurrency     int     `mapstructure:"concurrency"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
	MaxRetries      int     `mapstructure:"max_retries"`
	MaxPageBytes    int64   `mapstructure:"max_page_bytes"`
}

// SummaryConfig governs the summarization strategy chain.
type SummaryConfig struct {
	Sentences            int    `mapstructure:"sentences"`
	ChunkSize            int    `mapstructure:"chunk_size"`
	OllamaModel          string `mapstructure:"ollama_model"`
	OllamaTimeoutSeconds int    `mapstructure:"ollama_timeout_seconds"`
}

// StorageConfig sets file locations for seeds, raw documents, and outputs.
type StorageConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	SeedsFile string `mapstructure:"seeds_file"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// TelemetryConfig controls the optional Prometheus listener.
type TelemetryConfig struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TOYTOONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.user_agent", "toytoons-scraper/0.1")
	v.SetDefault("crawler.delay_min_seconds", 0.8)
	v.SetDefault("crawler.delay_max_seconds", 2.0)
	v.SetDefault("crawler.concurrency", 2)
	v.SetDefault("crawler.timeout_seconds", 30)
	v.SetDefault("crawler.max_retries", 3)
	v.SetDefault("crawler.max_page_bytes", 4<<20)
	v.SetDefault("summary.sentences", 2)
	v.SetDefault("summary.chunk_size", 4000)
	v.SetDefault("summary.ollama_model", "")
	v.SetDefault("summary.ollama_timeout_seconds", 60)
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.seeds_file", "seeds.txt")
	v.SetDefault("logging.development", true)
	v.SetDefault("telemetry.metrics_addr", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.DelayMinSeconds < 0 {
		return fmt.Errorf("crawler.delay_min_seconds must be >= 0")
	}
	if c.Crawler.DelayMaxSeconds < c.Crawler.DelayMinSeconds {
		return fmt.Errorf("crawler.delay_max_seconds must be >= crawler.delay_min_seconds")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Crawler.MaxRetries < 0 {
		return fmt.Errorf("crawler.max_retries must be >= 0")
	}
	if c.Summary.Sentences <= 0 {
		return fmt.Errorf("summary.sentences must be > 0")
	}
	if c.Summary.ChunkSize <= 0 {
		return fmt.Errorf("summary.chunk_size must be > 0")
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	return nil
}

// DelayMin returns the minimum politeness delay as a duration.
func (c CrawlerConfig) DelayMin() time.Duration {
	return time.Duration(c.DelayMinSeconds * float64(time.Second))
}

// DelayMax returns the maximum politeness delay as a duration.
func (c CrawlerConfig) DelayMax() time.Duration {
	return time.Duration(c.DelayMaxSeconds * float64(time.Second))
}

// Timeout returns the per-fetch timeout as a duration.
func (c CrawlerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// OllamaTimeout returns the per-call model timeout as a duration.
func (c SummaryConfig) OllamaTimeout() time.Duration {
	return time.Duration(c.OllamaTimeoutSeconds) * time.Second
}

// RawDir is where raw fetched documents are persisted.
func (c StorageConfig) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

// ProcessedDir is where parsed records and exports are written.
func (c StorageConfig) ProcessedDir() string {
	return filepath.Join(c.DataDir, "processed")
}

// ListingsJSONL is the append-style record file produced by the parse stage.
func (c StorageConfig) ListingsJSONL() string {
	return filepath.Join(c.ProcessedDir(), "listings.jsonl")
}

// ListingsJSON is the full JSON array export path.
func (c StorageConfig) ListingsJSON() string {
	return filepath.Join(c.ProcessedDir(), "listings.json")
}

// ListingsCSV is the flattened tabular export path.
func (c StorageConfig) ListingsCSV() string {
	return filepath.Join(c.ProcessedDir(), "listings.csv")
}
