package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.TargetURL = "abbey-peters.com"
	cfg.ArtistName = "Abbey Peters"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty target",
			mutate: func(cfg *Config) {
				cfg.TargetURL = ""
			},
			wantErr: "target URL",
		},
		{
			name: "missing host",
			mutate: func(cfg *Config) {
				cfg.TargetURL = "http://"
			},
			wantErr: "host",
		},
		{
			name: "ftp scheme",
			mutate: func(cfg *Config) {
				cfg.TargetURL = "ftp://example.com"
			},
			wantErr: "http or https",
		},
		{
			name: "blank artist",
			mutate: func(cfg *Config) {
				cfg.ArtistName = "  "
			},
			wantErr: "artist name",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "backoff above max",
			mutate: func(cfg *Config) {
				cfg.RetryBackoff = 5 * time.Second
				cfg.RetryBackoffMax = time.Second
			},
			wantErr: "retry backoff",
		},
		{
			name: "unknown engine",
			mutate: func(cfg *Config) {
				cfg.BrowserEngine = "webkit"
			},
			wantErr: "browser engine",
		},
		{
			name: "zero batch",
			mutate: func(cfg *Config) {
				cfg.DownloadBatchSize = 0
			},
			wantErr: "batch size",
		},
		{
			name: "bad enrich endpoint",
			mutate: func(cfg *Config) {
				cfg.EnrichEndpoint = "not a url"
			},
			wantErr: "enrich endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "abbey-peters.com", want: "https://abbey-peters.com/"},
		{input: " http://example.com/about#bio ", want: "http://example.com/about"},
		{input: "https://example.com", want: "https://example.com/"},
	}
	for _, tt := range tests {
		got, err := NormalizeURL(tt.input)
		if err != nil {
			t.Fatalf("NormalizeURL(%q): %v", tt.input, err)
		}
		if got.String() != tt.want {
			t.Fatalf("NormalizeURL(%q) = %q, want %q", tt.input, got.String(), tt.want)
		}
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.yaml")
	body := "max_pages: 3\nsettle_delay: 750ms\nsufficiency:\n  min_listings: 2\n  bio_counts: false\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := LoadFile(cfg, path); err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.MaxPages != 3 {
		t.Fatalf("max pages = %d, want 3", cfg.MaxPages)
	}
	if cfg.SettleDelay != 750*time.Millisecond {
		t.Fatalf("settle delay = %v, want 750ms", cfg.SettleDelay)
	}
	if cfg.Sufficiency.MinListings != 2 || cfg.Sufficiency.BioCounts {
		t.Fatalf("sufficiency = %+v", cfg.Sufficiency)
	}
	if cfg.Timeout != DefaultConfig().Timeout {
		t.Fatalf("timeout should keep default, got %v", cfg.Timeout)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ARTIST_SCRAPER_MAX_PAGES", "9")
	t.Setenv("ARTIST_SCRAPER_BROWSER_ENGINE", "Playwright")
	t.Setenv("ARTIST_SCRAPER_MIN_INTERVAL", "250ms")

	cfg := DefaultConfig()
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.MaxPages != 9 || cfg.BrowserEngine != EnginePlaywright || cfg.MinInterval != 250*time.Millisecond {
		t.Fatalf("unexpected config after env: %+v", cfg)
	}

	t.Setenv("ARTIST_SCRAPER_MAX_PAGES", "nine")
	if err := ApplyEnv(DefaultConfig()); err == nil {
		t.Fatalf("expected error for non-numeric max pages")
	}
}
