package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://mensa.fachschaft.tf/", cfg.Scraper.BaseURL)
	assert.Equal(t, "mensascraper/0.1", cfg.Scraper.UserAgent)
	assert.Equal(t, float64(1), cfg.Scraper.HostQPS)
	assert.Equal(t, int64(16*1024*1024), cfg.Scraper.MaxImageBytes)
	assert.Equal(t, 40, cfg.Headless.NavTimeoutSec)
	assert.Equal(t, 800, cfg.Headless.SettleDelayMs)
	assert.Equal(t, 1, cfg.Headless.MaxParallel)
	assert.Equal(t, "images", cfg.Output.Dir)
	assert.Equal(t, "meals_raw", cfg.Output.CSVName)
	assert.Equal(t, 5, cfg.Partition.WorkerCount)
	assert.Equal(t, "SLURM_ARRAY_TASK_ID", cfg.Partition.IndexEnvVar)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
scraper:
  base_url: https://example.org/menu
  host_qps: 0.5
headless:
  max_parallel: 3
  settle_delay_ms: 250
output:
  csv_name: menu_log
partition:
  worker_count: 8
metrics:
  enabled: true
  port: 9191
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/menu", cfg.Scraper.BaseURL)
	assert.Equal(t, 0.5, cfg.Scraper.HostQPS)
	assert.Equal(t, 3, cfg.Headless.MaxParallel)
	assert.Equal(t, 250, cfg.Headless.SettleDelayMs)
	assert.Equal(t, "menu_log", cfg.Output.CSVName)
	assert.Equal(t, 8, cfg.Partition.WorkerCount)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)

	// Untouched keys keep their defaults.
	assert.Equal(t, "mensascraper/0.1", cfg.Scraper.UserAgent)
	assert.Equal(t, "images", cfg.Output.Dir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("partition:\n  worker_count: 0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partition.worker_count")
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing base url", func(c *Config) { c.Scraper.BaseURL = "" }, "scraper.base_url"},
		{"missing user agent", func(c *Config) { c.Scraper.UserAgent = "" }, "scraper.user_agent"},
		{"zero image timeout", func(c *Config) { c.Scraper.ImageTimeoutSec = 0 }, "image_timeout_seconds"},
		{"zero image size cap", func(c *Config) { c.Scraper.MaxImageBytes = 0 }, "max_image_bytes"},
		{"zero nav timeout", func(c *Config) { c.Headless.NavTimeoutSec = 0 }, "nav_timeout_seconds"},
		{"zero parallelism", func(c *Config) { c.Headless.MaxParallel = 0 }, "max_parallel"},
		{"missing out dir", func(c *Config) { c.Output.Dir = "" }, "output.dir"},
		{"missing csv name", func(c *Config) { c.Output.CSVName = "" }, "output.csv_name"},
		{"zero workers", func(c *Config) { c.Partition.WorkerCount = 0 }, "worker_count"},
		{"bad metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 0 }, "metrics.port"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestMenuConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	mc := cfg.MenuConfig("", "")
	assert.Equal(t, cfg.Scraper.BaseURL, mc.BaseURL)
	assert.Equal(t, 40*time.Second, mc.NavTimeout)
	assert.Equal(t, 800*time.Millisecond, mc.SettleDelay)
	assert.Equal(t, 20*time.Second, mc.ImageTimeout)
	assert.Equal(t, "images", mc.OutDir)
	assert.Equal(t, "meals_raw", mc.CSVName)
	require.NoError(t, mc.Validate())

	mc = cfg.MenuConfig("/data/run7", "meals_raw_w2")
	assert.Equal(t, "/data/run7", mc.OutDir)
	assert.Equal(t, "meals_raw_w2", mc.CSVName)
}
