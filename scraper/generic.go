package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/aluiziolira/go-scrape-artists/fetch"
	"github.com/aluiziolira/go-scrape-artists/models"
	"github.com/aluiziolira/go-scrape-artists/parser"
)

// GenericScraper extracts a profile from server-rendered HTML using DOM
// heuristics. It works on any platform.
type GenericScraper struct {
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// NewGenericScraper returns a DOM strategy that fetches through f.
func NewGenericScraper(f *fetch.Fetcher, logger *slog.Logger) *GenericScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenericScraper{fetcher: f, logger: logger.With(slog.String("component", "generic_scraper"))}
}

func (s *GenericScraper) Name() string { return NameGeneric }

// Scrape reads the root page, then up to opts.MaxPages classified
// secondary pages that robots.txt allows.
func (s *GenericScraper) Scrape(ctx context.Context, data *models.ScrapedArtistData, opts Options) error {
	root, ok := s.loadRoot(ctx, data, opts.Root)
	if !ok {
		return nil
	}
	ex := newPageExtractor(data, opts.MinImageWidth)
	s.scrapeFrom(ctx, data, root, ex, opts, models.ConfidenceMedium)
	ex.finish()
	return nil
}

// scrapeFrom extracts root and its secondary pages. The structured
// strategy reuses it for its DOM fallback.
func (s *GenericScraper) scrapeFrom(ctx context.Context, data *models.ScrapedArtistData, root *page, ex *pageExtractor, opts Options, conf models.Confidence) {
	ex.extract(root.Doc, root.URL, hintRoot, conf)
	crawlSecondary(ctx, data, root, opts.MaxPages, s.loadLink, func(pg *page) {
		ex.extract(pg.Doc, pg.URL, pg.Hint, conf)
	}, s.logger)
}

func (s *GenericScraper) loadRoot(ctx context.Context, data *models.ScrapedArtistData, resp *fetch.Response) (*page, bool) {
	if resp == nil || !resp.OK {
		resp = s.fetcher.Get(ctx, data.WebsiteURL, fetch.Options{})
	}
	if !resp.OK {
		data.AddError(data.WebsiteURL, responseError(resp))
		return nil, false
	}
	pg, err := pageFromResponse(resp, data.WebsiteURL, hintRoot)
	if err != nil {
		data.AddError(data.WebsiteURL, err)
		return nil, false
	}
	data.MarkVisited(pg.URL.String())
	return pg, true
}

func (s *GenericScraper) loadLink(ctx context.Context, data *models.ScrapedArtistData, link models.NavLink) (*page, bool) {
	if !s.fetcher.Allowed(ctx, link.URL) {
		return nil, false
	}
	resp := s.fetcher.Get(ctx, link.URL, fetch.Options{})
	if !resp.OK {
		s.logger.Warn("secondary page failed",
			slog.String("url", link.URL),
			slog.Int("status", resp.Status),
			slog.String("error_type", fetch.ErrorTypeLabel(resp.Err)),
		)
		data.AddError(link.URL, responseError(resp))
		return nil, false
	}
	pg, err := pageFromResponse(resp, link.URL, link.Hint)
	if err != nil {
		data.AddError(link.URL, err)
		return nil, false
	}
	return pg, true
}

func pageFromResponse(resp *fetch.Response, requested, hint string) (*page, error) {
	final := resp.FinalURL
	if final == "" {
		final = requested
	}
	u, err := url.Parse(final)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := parser.NewDocument(string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &page{URL: u, Doc: doc, Hint: hint}, nil
}
