package menu

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds the settings for a scrape run.
// This struct is decoupled from Viper, making the engine and its
// configuration easier to test independently.
type Config struct {
	BaseURL       string
	UserAgent     string
	NavTimeout    time.Duration
	SettleDelay   time.Duration
	MaxParallel   int
	HostQPS       float64
	ImageTimeout  time.Duration
	MaxImageBytes int64
	OutDir        string
	CSVName       string
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("scraper.base_url must be set")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("scraper.base_url is invalid: %w", err)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("scraper.user_agent must be set")
	}
	if c.NavTimeout <= 0 {
		return fmt.Errorf("headless.nav_timeout must be > 0")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("headless.settle_delay must be >= 0")
	}
	if c.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0")
	}
	if c.HostQPS < 0 {
		return fmt.Errorf("scraper.host_qps must be >= 0")
	}
	if c.ImageTimeout <= 0 {
		return fmt.Errorf("scraper.image_timeout must be > 0")
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("scraper.max_image_bytes must be > 0")
	}
	if c.OutDir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.CSVName == "" {
		return fmt.Errorf("output.csv_name must be set")
	}
	return nil
}

// DayURL returns the menu page URL for one calendar day.
func (c Config) DayURL(day time.Time) string {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return c.BaseURL
	}
	q := base.Query()
	q.Set("date", ISODate(day))
	base.RawQuery = q.Encode()
	return base.String()
}
