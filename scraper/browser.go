package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aluiziolira/go-scrape-artists/browser"
	"github.com/aluiziolira/go-scrape-artists/fetch"
	"github.com/aluiziolira/go-scrape-artists/models"
	"github.com/aluiziolira/go-scrape-artists/parser"
)

// BrowserScraper renders pages in a headless browser and runs the DOM
// extractors over the rendered HTML.
type BrowserScraper struct {
	launch  browser.Launcher
	opts    browser.Options
	fetcher *fetch.Fetcher
	logger  *slog.Logger

	shots int
}

// NewBrowserScraper returns the browser strategy. f is used only for
// robots.txt checks and may be nil.
func NewBrowserScraper(launch browser.Launcher, opts browser.Options, f *fetch.Fetcher, logger *slog.Logger) *BrowserScraper {
	if launch == nil {
		launch = browser.Launch
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserScraper{
		launch:  launch,
		opts:    opts,
		fetcher: f,
		logger:  logger.With(slog.String("component", "browser_scraper")),
	}
}

func (s *BrowserScraper) Name() string { return NameBrowser }

// Scrape returns an error only when the browser cannot be launched.
func (s *BrowserScraper) Scrape(ctx context.Context, data *models.ScrapedArtistData, opts Options) error {
	driver, err := s.launch(ctx, s.opts)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			s.logger.Warn("closing browser", slog.Any("error", err))
		}
	}()
	s.shots = 0

	root, ok := s.render(ctx, driver, data, data.WebsiteURL, hintRoot, opts.ScreenshotDir)
	if !ok {
		return nil
	}
	data.MarkVisited(root.URL.String())

	ex := newPageExtractor(data, opts.MinImageWidth)
	ex.extract(root.Doc, root.URL, hintRoot, models.ConfidenceMedium)
	crawlSecondary(ctx, data, root, opts.MaxPages,
		func(ctx context.Context, data *models.ScrapedArtistData, link models.NavLink) (*page, bool) {
			if s.fetcher != nil && !s.fetcher.Allowed(ctx, link.URL) {
				return nil, false
			}
			return s.render(ctx, driver, data, link.URL, link.Hint, opts.ScreenshotDir)
		},
		func(pg *page) {
			ex.extract(pg.Doc, pg.URL, pg.Hint, models.ConfidenceMedium)
		},
		s.logger,
	)
	ex.finish()
	return nil
}

func (s *BrowserScraper) render(ctx context.Context, driver browser.Driver, data *models.ScrapedArtistData, rawURL, hint, shotDir string) (*page, bool) {
	snap, err := driver.Visit(ctx, rawURL)
	if err != nil {
		s.logger.Warn("render failed", slog.String("url", rawURL), slog.Any("error", err))
		data.AddError(rawURL, err)
		return nil, false
	}
	final := snap.URL
	if final == "" {
		final = rawURL
	}
	u, err := url.Parse(final)
	if err != nil {
		data.AddError(rawURL, fmt.Errorf("parse page url: %w", err))
		return nil, false
	}
	doc, err := parser.NewDocument(snap.HTML)
	if err != nil {
		data.AddError(rawURL, fmt.Errorf("parse rendered html: %w", err))
		return nil, false
	}

	if shotDir != "" && len(snap.Screenshot) > 0 {
		s.shots++
		path := filepath.Join(shotDir, fmt.Sprintf("%02d-%s.png", s.shots, pageSlug(u)))
		if err := writeScreenshot(path, snap.Screenshot); err != nil {
			data.AddWarning(fmt.Sprintf("screenshot for %s not saved: %v", final, err))
		}
	}
	return &page{URL: u, Doc: doc, Hint: hint}, true
}

func pageSlug(u *url.URL) string {
	slug := parser.Slugify(strings.Trim(u.Path, "/"))
	if slug == "" {
		return "home"
	}
	return slug
}

func writeScreenshot(path string, png []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, png, 0o644)
}
