package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"fbref-scraper/matchlog"

	"gopkg.in/yaml.v3"
)

// Config is the scraper configuration read from a YAML file
type Config struct {
	Categories []string      `yaml:"categories"`
	Fetcher    FetcherConfig `yaml:"fetcher"`
	Cache      CacheConfig   `yaml:"cache"`
	Output     OutputConfig  `yaml:"output"`
	Filters    FilterConfig  `yaml:"filters"`
	Sheets     SheetsConfig  `yaml:"sheets"`
	Bot        BotConfig     `yaml:"bot"`
	Metrics    MetricsConfig `yaml:"metrics"`
}

// FetcherConfig controls how category pages are downloaded
type FetcherConfig struct {
	Engine    string        `yaml:"engine"` // colly or resty
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Delay     time.Duration `yaml:"delay"` // minimum spacing between requests
	Retries   uint64        `yaml:"retries"`
	Backoff   time.Duration `yaml:"backoff"` // initial retry interval
}

// CacheConfig selects the fetch cache
type CacheConfig struct {
	Kind string        `yaml:"kind"` // memory, disk or none
	TTL  time.Duration `yaml:"ttl"`
	Size int           `yaml:"size"`
	Dir  string        `yaml:"dir"`
}

// OutputConfig controls the exported artifact
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	PreviewRows int    `yaml:"preview_rows"`
}

// FilterConfig represents the column selection criteria
type FilterConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// SheetsConfig enables the Google Sheets export
type SheetsConfig struct {
	SpreadsheetURL string `yaml:"spreadsheet_url"`
	Credentials    string `yaml:"credentials"` // path to a service account file
}

// BotConfig configures the Telegram front end
type BotConfig struct {
	AllowedUsers []string      `yaml:"allowed_users"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// MetricsConfig exposes Prometheus metrics when Listen is set
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// LoadConfig loads configuration from a YAML file. Values absent from the
// file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when it does not exist
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return GetDefaultConfig(), nil
	}
	return cfg, err
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Categories = append([]string(nil), matchlog.DefaultCategories...)
	cfg.Fetcher.Engine = "colly"
	cfg.Fetcher.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	cfg.Fetcher.Timeout = 30 * time.Second
	cfg.Fetcher.Delay = 4 * time.Second
	cfg.Fetcher.Retries = 2
	cfg.Fetcher.Backoff = 2 * time.Second
	cfg.Cache.Kind = "memory"
	cfg.Cache.TTL = time.Hour
	cfg.Cache.Size = 64
	cfg.Cache.Dir = ".fbref-cache"
	cfg.Output.Dir = "."
	cfg.Output.PreviewRows = 20
	cfg.Bot.PollInterval = 5 * time.Second
	return cfg
}

// Validate checks values that have a fixed set of choices
func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return errors.New("config: at least one category is required")
	}
	switch c.Fetcher.Engine {
	case "colly", "resty":
	default:
		return fmt.Errorf("config: unknown fetcher engine %q", c.Fetcher.Engine)
	}
	switch c.Cache.Kind {
	case "memory", "disk", "none":
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}
	if c.Cache.Kind != "none" && c.Cache.TTL <= 0 {
		return fmt.Errorf("config: cache.ttl must be positive for the %s cache", c.Cache.Kind)
	}
	if c.Output.PreviewRows < 0 {
		return fmt.Errorf("config: preview_rows must not be negative")
	}
	return nil
}
