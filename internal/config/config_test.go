package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "toytoons-scraper/0.1", cfg.Crawler.UserAgent)
	require.Equal(t, 2, cfg.Crawler.Concurrency)
	require.Equal(t, 3, cfg.Crawler.MaxRetries)
	require.Equal(t, 2, cfg.Summary.Sentences)
	require.Equal(t, 4000, cfg.Summary.ChunkSize)
	require.Empty(t, cfg.Summary.OllamaModel)
	require.Equal(t, 30*time.Second, cfg.Crawler.Timeout())
	require.Equal(t, 800*time.Millisecond, cfg.Crawler.DelayMin())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	payload := []byte(`
crawler:
  user_agent: test-bot/1.0
  concurrency: 5
summary:
  ollama_model: llama3
storage:
  data_dir: /tmp/toytoons
`)
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "test-bot/1.0", cfg.Crawler.UserAgent)
	require.Equal(t, 5, cfg.Crawler.Concurrency)
	require.Equal(t, "llama3", cfg.Summary.OllamaModel)
	require.Equal(t, filepath.Join("/tmp/toytoons", "raw"), cfg.Storage.RawDir())
	require.Equal(t, filepath.Join("/tmp/toytoons", "processed", "listings.csv"), cfg.Storage.ListingsCSV())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.Crawler.Concurrency = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Crawler.DelayMaxSeconds = 0.1
	bad.Crawler.DelayMinSeconds = 0.5
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Summary.ChunkSize = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Storage.DataDir = "  "
	require.Error(t, bad.Validate())
}
