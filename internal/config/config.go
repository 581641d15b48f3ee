// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mensatf/mensascraper/internal/menu"
	"github.com/mensatf/mensascraper/internal/partition"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Output    OutputConfig    `mapstructure:"output"`
	Partition PartitionConfig `mapstructure:"partition"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ScraperConfig governs the fetch pipeline.
type ScraperConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	UserAgent       string  `mapstructure:"user_agent"`
	HostQPS         float64 `mapstructure:"host_qps"`
	ImageTimeoutSec int     `mapstructure:"image_timeout_seconds"`
	MaxImageBytes   int64   `mapstructure:"max_image_bytes"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	NavTimeoutSec int `mapstructure:"nav_timeout_seconds"`
	SettleDelayMs int `mapstructure:"settle_delay_ms"`
	MaxParallel   int `mapstructure:"max_parallel"`
}

// OutputConfig sets paths and names for on-disk artifacts.
type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	CSVName string `mapstructure:"csv_name"`
}

// PartitionConfig controls job-array partitioning defaults.
type PartitionConfig struct {
	WorkerCount int    `mapstructure:"worker_count"`
	IndexEnvVar string `mapstructure:"index_env_var"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MENSA")
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
	v.SetDefault("scraper.base_url", "https://mensa.fachschaft.tf/")
	v.SetDefault("scraper.user_agent", "mensascraper/0.1")
	v.SetDefault("scraper.host_qps", 1)
	v.SetDefault("scraper.image_timeout_seconds", 20)
	v.SetDefault("scraper.max_image_bytes", 16*1024*1024)
	v.SetDefault("headless.nav_timeout_seconds", 40)
	v.SetDefault("headless.settle_delay_ms", 800)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("output.dir", "images")
	v.SetDefault("output.csv_name", "meals_raw")
	v.SetDefault("partition.worker_count", partition.DefaultWorkerCount)
	v.SetDefault("partition.index_env_var", "SLURM_ARRAY_TASK_ID")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url must be set")
	}
	if c.Scraper.UserAgent == "" {
		return fmt.Errorf("scraper.user_agent must be set")
	}
	if c.Scraper.ImageTimeoutSec <= 0 {
		return fmt.Errorf("scraper.image_timeout_seconds must be > 0")
	}
	if c.Scraper.MaxImageBytes <= 0 {
		return fmt.Errorf("scraper.max_image_bytes must be > 0")
	}
	if c.Headless.NavTimeoutSec <= 0 {
		return fmt.Errorf("headless.nav_timeout_seconds must be > 0")
	}
	if c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Output.CSVName == "" {
		return fmt.Errorf("output.csv_name must be set")
	}
	if c.Partition.WorkerCount < 1 {
		return fmt.Errorf("partition.worker_count must be >= 1")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// MenuConfig converts the loaded configuration into the engine's config,
// applying any per-run output overrides.
func (c Config) MenuConfig(outDir, csvName string) menu.Config {
	if outDir == "" {
		outDir = c.Output.Dir
	}
	if csvName == "" {
		csvName = c.Output.CSVName
	}
	return menu.Config{
		BaseURL:       c.Scraper.BaseURL,
		UserAgent:     c.Scraper.UserAgent,
		NavTimeout:    time.Duration(c.Headless.NavTimeoutSec) * time.Second,
		SettleDelay:   time.Duration(c.Headless.SettleDelayMs) * time.Millisecond,
		MaxParallel:   c.Headless.MaxParallel,
		HostQPS:       c.Scraper.HostQPS,
		ImageTimeout:  time.Duration(c.Scraper.ImageTimeoutSec) * time.Second,
		MaxImageBytes: c.Scraper.MaxImageBytes,
		OutDir:        outDir,
		CSVName:       csvName,
	}
}
