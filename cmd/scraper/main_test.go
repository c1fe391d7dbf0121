package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.yaml")
	yaml := "output_dir: from-file\nmax_pages: 3\nbrowser_engine: playwright\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ARTIST_SCRAPER_OUTPUT", "from-env")
	t.Setenv("ARTIST_SCRAPER_MAX_PAGES", "")

	c := &cli{}
	cmd := c.command()
	if err := cmd.ParseFlags([]string{"--name", " Abbey Peters ", "--config", path, "--max-pages", "9", "--skip-ai"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := c.config(cmd, "abbey-peters.com")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.OutputDir != "from-env" {
		t.Fatalf("output=%q, want env value", cfg.OutputDir)
	}
	if cfg.MaxPages != 9 {
		t.Fatalf("max pages=%d, want flag value", cfg.MaxPages)
	}
	if cfg.BrowserEngine != "playwright" {
		t.Fatalf("engine=%q, want file value", cfg.BrowserEngine)
	}
	if !cfg.SkipAI || cfg.SkipImages {
		t.Fatalf("skip flags: ai=%v images=%v", cfg.SkipAI, cfg.SkipImages)
	}
	if cfg.ArtistName != "Abbey Peters" {
		t.Fatalf("name=%q", cfg.ArtistName)
	}
}

func TestConfigRejectsInvalidEngine(t *testing.T) {
	c := &cli{}
	cmd := c.command()
	if err := cmd.ParseFlags([]string{"--name", "Abbey", "--engine", "netscape"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := c.config(cmd, "abbey-peters.com"); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestCommandRequiresURL(t *testing.T) {
	c := &cli{}
	cmd := c.command()
	cmd.SetArgs([]string{"--name", "Abbey"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected missing argument error")
	}
}
