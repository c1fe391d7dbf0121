package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Browser engines understood by the browser package.
const (
	EngineChromedp   = "chromedp"
	EnginePlaywright = "playwright"
)

// Sufficiency decides whether a strategy result is good enough to skip
// browser escalation. A zero threshold disables that signal.
type Sufficiency struct {
	MinListings  int  `yaml:"min_listings"`
	MinCvEntries int  `yaml:"min_cv_entries"`
	BioCounts    bool `yaml:"bio_counts"`
}

// Config holds scraper configuration.
type Config struct {
	TargetURL    string `yaml:"-"`
	ArtistName   string `yaml:"-"`
	OutputDir    string `yaml:"output_dir"`
	SkipImages   bool   `yaml:"skip_images"`
	SkipAI       bool   `yaml:"skip_ai"`
	ForceBrowser bool   `yaml:"force_browser"`
	Verbose      bool   `yaml:"verbose"`

	MaxPages        int           `yaml:"max_pages"`
	BrowserMaxPages int           `yaml:"browser_max_pages"`
	Timeout         time.Duration `yaml:"timeout"`
	MinInterval     time.Duration `yaml:"min_interval"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
	RetryBackoffMax time.Duration `yaml:"retry_backoff_max"`
	UserAgent       string        `yaml:"user_agent"`
	RobotsCacheSize int           `yaml:"robots_cache_size"`

	BrowserEngine   string        `yaml:"browser_engine"`
	BrowserTimeout  time.Duration `yaml:"browser_timeout"`
	NetworkIdleWait time.Duration `yaml:"network_idle_wait"`
	SettleDelay     time.Duration `yaml:"settle_delay"`

	MinImageWidth     int           `yaml:"min_image_width"`
	MinImageBytes     int           `yaml:"min_image_bytes"`
	DownloadBatchSize int           `yaml:"download_batch_size"`
	DownloadTimeout   time.Duration `yaml:"download_timeout"`

	EnrichEndpoint string        `yaml:"enrich_endpoint"`
	EnrichAPIKey   string        `yaml:"-"`
	EnrichTimeout  time.Duration `yaml:"enrich_timeout"`

	Sufficiency Sufficiency `yaml:"sufficiency"`
	MetricsAddr string      `yaml:"metrics_addr"`
}

// DefaultConfig returns conservative defaults for small artist sites.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:         "output",
		MaxPages:          6,
		BrowserMaxPages:   4,
		Timeout:           15 * time.Second,
		MinInterval:       time.Second,
		MaxRetries:        2,
		RetryBackoff:      500 * time.Millisecond,
		RetryBackoffMax:   4 * time.Second,
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		RobotsCacheSize:   256,
		BrowserEngine:     EngineChromedp,
		BrowserTimeout:    45 * time.Second,
		NetworkIdleWait:   10 * time.Second,
		SettleDelay:       2 * time.Second,
		MinImageWidth:     300,
		MinImageBytes:     5 * 1024,
		DownloadBatchSize: 5,
		DownloadTimeout:   30 * time.Second,
		EnrichTimeout:     60 * time.Second,
		Sufficiency: Sufficiency{
			MinListings:  1,
			MinCvEntries: 1,
			BioCounts:    true,
		},
	}
}

// LoadFile overlays a YAML file onto cfg. Keys absent from the file keep
// their current values.
func LoadFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from ARTIST_SCRAPER_* variables.
func ApplyEnv(cfg *Config) error {
	if value, ok := EnvString("ARTIST_SCRAPER_OUTPUT"); ok {
		cfg.OutputDir = value
	}
	if value, ok, err := EnvInt("ARTIST_SCRAPER_MAX_PAGES"); err != nil {
		return fmt.Errorf("invalid ARTIST_SCRAPER_MAX_PAGES: %w", err)
	} else if ok {
		cfg.MaxPages = value
	}
	if value, ok, err := EnvDuration("ARTIST_SCRAPER_MIN_INTERVAL"); err != nil {
		return fmt.Errorf("invalid ARTIST_SCRAPER_MIN_INTERVAL: %w", err)
	} else if ok {
		cfg.MinInterval = value
	}
	if value, ok := EnvString("ARTIST_SCRAPER_BROWSER_ENGINE"); ok {
		cfg.BrowserEngine = strings.ToLower(value)
	}
	if value, ok := EnvString("ARTIST_SCRAPER_ENRICH_ENDPOINT"); ok {
		cfg.EnrichEndpoint = value
	}
	if value, ok := EnvString("ARTIST_SCRAPER_ENRICH_API_KEY"); ok {
		cfg.EnrichAPIKey = value
	}
	if value, ok := EnvString("ARTIST_SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	return nil
}

// EnvString returns a trimmed, non-empty environment value.
func EnvString(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses an integer environment value.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// EnvDuration parses a duration environment value such as "750ms".
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, err
	}
	return d, true, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return fmt.Errorf("target URL cannot be empty")
	}
	if strings.TrimSpace(c.ArtistName) == "" {
		return fmt.Errorf("artist name cannot be empty")
	}
	if _, err := NormalizeURL(c.TargetURL); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.BrowserMaxPages < 0 {
		return fmt.Errorf("browser max pages cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.BrowserTimeout <= 0 {
		return fmt.Errorf("browser timeout must be positive")
	}
	if c.MinInterval < 0 {
		return fmt.Errorf("min interval cannot be negative")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.RobotsCacheSize <= 0 {
		return fmt.Errorf("robots cache size must be positive")
	}
	if c.BrowserEngine != EngineChromedp && c.BrowserEngine != EnginePlaywright {
		return fmt.Errorf("browser engine must be %s or %s", EngineChromedp, EnginePlaywright)
	}
	if c.DownloadBatchSize <= 0 {
		return fmt.Errorf("download batch size must be positive")
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("download timeout must be positive")
	}
	if c.MinImageBytes < 0 || c.MinImageWidth < 0 {
		return fmt.Errorf("image thresholds cannot be negative")
	}
	if c.EnrichEndpoint != "" {
		if _, err := url.ParseRequestURI(c.EnrichEndpoint); err != nil {
			return fmt.Errorf("invalid enrich endpoint: %w", err)
		}
	}
	if c.Sufficiency.MinListings < 0 || c.Sufficiency.MinCvEntries < 0 {
		return fmt.Errorf("sufficiency thresholds cannot be negative")
	}
	return nil
}

// NormalizeURL adds a missing scheme and rejects URLs without a host.
func NormalizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("target URL cannot be empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("target URL must use http or https")
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("target URL must include a host")
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	parsed.Fragment = ""
	return parsed, nil
}
