// Package orchestrator runs one extraction end to end: root fetch, platform
// detection, strategy selection, browser escalation, enrichment, image
// download and output files.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aluiziolira/go-scrape-artists/browser"
	"github.com/aluiziolira/go-scrape-artists/config"
	"github.com/aluiziolira/go-scrape-artists/detect"
	"github.com/aluiziolira/go-scrape-artists/enrich"
	"github.com/aluiziolira/go-scrape-artists/fetch"
	"github.com/aluiziolira/go-scrape-artists/models"
	"github.com/aluiziolira/go-scrape-artists/parser"
	"github.com/aluiziolira/go-scrape-artists/pipeline"
	"github.com/aluiziolira/go-scrape-artists/scraper"
)

// Deps are the collaborators of a run. Nil fields are built from the
// config.
type Deps struct {
	Fetcher    *fetch.Fetcher
	Launch     browser.Launcher
	Enricher   enrich.Enricher
	Downloader *pipeline.Downloader
	Logger     *slog.Logger
}

// Orchestrator owns the strategies and collaborators for runs against one
// config.
type Orchestrator struct {
	cfg        *config.Config
	fetcher    *fetch.Fetcher
	enricher   enrich.Enricher
	downloader *pipeline.Downloader
	logger     *slog.Logger

	structured scraper.Strategy
	generic    scraper.Strategy
	browser    scraper.Strategy
}

// New wires an orchestrator.
func New(cfg *config.Config, deps Deps) (*Orchestrator, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	f := deps.Fetcher
	if f == nil {
		var err error
		if f, err = fetch.New(cfg); err != nil {
			return nil, fmt.Errorf("create fetcher: %w", err)
		}
	}

	enricher := deps.Enricher
	if enricher == nil && cfg.EnrichEndpoint != "" {
		enricher = enrich.NewClient(cfg.EnrichEndpoint, cfg.EnrichAPIKey, cfg.EnrichTimeout)
	}

	downloader := deps.Downloader
	if downloader == nil && !cfg.SkipImages {
		var err error
		if downloader, err = pipeline.NewDownloader(cfg, f.Metrics, logger); err != nil {
			return nil, fmt.Errorf("create downloader: %w", err)
		}
	}

	return &Orchestrator{
		cfg:        cfg,
		fetcher:    f,
		enricher:   enricher,
		downloader: downloader,
		logger:     logger.With(slog.String("component", "orchestrator")),
		structured: scraper.NewSquarespaceScraper(f, logger),
		generic:    scraper.NewGenericScraper(f, logger),
		browser:    scraper.NewBrowserScraper(deps.Launch, browser.OptionsFromConfig(cfg, logger), f, logger),
	}, nil
}

// Run builds an orchestrator for cfg and executes one extraction.
func Run(ctx context.Context, cfg *config.Config, deps Deps) *models.RunResult {
	o, err := New(cfg, deps)
	if err != nil {
		now := time.Now()
		return &models.RunResult{
			RunID:      uuid.NewString(),
			WebsiteURL: cfg.TargetURL,
			StartTime:  now,
			EndTime:    now,
			Errors:     []models.ScrapeError{{URL: cfg.TargetURL, Error: err.Error()}},
		}
	}
	return o.Run(ctx)
}

// Run executes one extraction. It always returns a result, never panics,
// and reports success only when no error was recorded.
func (o *Orchestrator) Run(ctx context.Context) (result *models.RunResult) {
	result = &models.RunResult{
		RunID:      uuid.NewString(),
		WebsiteURL: o.cfg.TargetURL,
		StartTime:  time.Now(),
		Errors:     []models.ScrapeError{},
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("run panicked", slog.Any("panic", r))
			if result.Data != nil {
				result.Data.AddError(result.WebsiteURL, fmt.Errorf("internal error: %v", r))
			} else {
				result.Errors = append(result.Errors, models.ScrapeError{URL: result.WebsiteURL, Error: fmt.Sprintf("internal error: %v", r)})
			}
		}
		o.finish(result)
	}()

	target, err := config.NormalizeURL(o.cfg.TargetURL)
	if err != nil {
		result.Errors = append(result.Errors, models.ScrapeError{URL: o.cfg.TargetURL, Error: err.Error()})
		return result
	}
	result.WebsiteURL = target.String()

	data := models.NewScrapedArtistData(target.String(), models.PlatformGeneric)
	result.Data = data
	o.logger.Info("run started",
		slog.String("run_id", result.RunID),
		slog.String("url", data.WebsiteURL),
	)

	opts := scraper.Options{
		MaxPages:      o.cfg.MaxPages,
		MinImageWidth: o.cfg.MinImageWidth,
	}
	root := o.fetcher.Get(ctx, data.WebsiteURL, fetch.Options{})
	if root.OK {
		feedURL := root.FinalURL
		if feedURL == "" {
			feedURL = data.WebsiteURL
		}
		opts.Platform = detect.Detect(root.Header, string(root.Body), feedURL)
		opts.Root = root
		data.Platform = opts.Platform.Platform
		result.Platform = data.Platform
		o.logger.Info("platform detected", slog.String("platform", string(data.Platform)))
	}

	switch {
	case o.cfg.ForceBrowser:
		result.Data = o.runBrowser(ctx, result, data, opts)
	case !root.OK:
		// No strategy can work without the root page.
		data.AddError(data.WebsiteURL, rootError(root))
		o.logger.Warn("root fetch failed", slog.String("url", data.WebsiteURL), slog.Any("error", root.Err))
	default:
		strategy := o.selectStrategy(opts.Platform)
		result.Strategy = strategy.Name()
		if err := o.runStrategy(ctx, strategy, data, opts); err != nil {
			data.AddError(data.WebsiteURL, err)
		}
		if !Sufficient(data, o.cfg.Sufficiency) {
			o.logger.Info("result insufficient, escalating to browser",
				slog.String("strategy", strategy.Name()),
			)
			result.Data = o.escalate(ctx, result, data, opts)
		}
	}
	data = result.Data

	o.enrich(ctx, data)

	dir := filepath.Join(o.cfg.OutputDir, o.slug(result, data))
	result.OutputDir = dir
	if !o.cfg.SkipImages && o.downloader != nil {
		if jobs := pipeline.BuildWorkList(data); len(jobs) > 0 {
			counts := o.downloader.Download(ctx, dir, jobs)
			result.Images = counts
			o.logger.Info("images downloaded",
				slog.Int("downloaded", counts.Downloaded),
				slog.Int("skipped", counts.Skipped),
				slog.Int("failed", counts.Failed),
			)
		}
	}
	o.writeOutputs(result, data, dir)
	return result
}

func (o *Orchestrator) selectStrategy(platform models.DetectedPlatform) scraper.Strategy {
	if platform.Platform == models.PlatformSquarespace {
		return o.structured
	}
	return o.generic
}

// runStrategy converts a strategy panic into an error.
func (o *Orchestrator) runStrategy(ctx context.Context, s scraper.Strategy, data *models.ScrapedArtistData, opts scraper.Options) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s strategy panicked: %v", s.Name(), r)
		}
	}()
	start := time.Now()
	err = s.Scrape(ctx, data, opts)
	o.logger.Info("strategy finished",
		slog.String("strategy", s.Name()),
		slog.Int("pages", len(data.PagesVisited)),
		slog.Int("listings", len(data.Listings)),
		slog.Int("cv_entries", len(data.CvEntries)),
		slog.Duration("duration", time.Since(start)),
	)
	return err
}

func (o *Orchestrator) browserOptions(result *models.RunResult, data *models.ScrapedArtistData, opts scraper.Options) scraper.Options {
	opts.Root = nil
	opts.MaxPages = o.cfg.BrowserMaxPages
	opts.ScreenshotDir = filepath.Join(o.cfg.OutputDir, o.slug(result, data), pipeline.ScreenshotsDir)
	return opts
}

func (o *Orchestrator) runBrowser(ctx context.Context, result *models.RunResult, data *models.ScrapedArtistData, opts scraper.Options) *models.ScrapedArtistData {
	result.Strategy = o.browser.Name()
	if err := o.runStrategy(ctx, o.browser, data, o.browserOptions(result, data, opts)); err != nil {
		data.AddError(data.WebsiteURL, err)
	}
	return data
}

// escalate renders the site into a fresh record and keeps whichever of the
// two carries more signal. A browser that cannot start leaves base as is.
func (o *Orchestrator) escalate(ctx context.Context, result *models.RunResult, base *models.ScrapedArtistData, opts scraper.Options) *models.ScrapedArtistData {
	fresh := models.NewScrapedArtistData(base.WebsiteURL, base.Platform)
	err := o.runStrategy(ctx, o.browser, fresh, o.browserOptions(result, base, opts))
	result.Escalated = true
	if err != nil {
		o.logger.Warn("browser escalation failed", slog.Any("error", err))
		base.AddError(base.WebsiteURL, err)
		return base
	}
	if PickBetter(base, fresh) == base {
		base.AddWarning("browser rendering found no additional data; kept the " + result.Strategy + " result")
		return base
	}
	result.Strategy = o.browser.Name()
	fresh.Warnings = append(base.Warnings, fresh.Warnings...)
	fresh.AddWarning("static extraction was insufficient; result taken from browser rendering")
	return fresh
}

func (o *Orchestrator) writeOutputs(result *models.RunResult, data *models.ScrapedArtistData, dir string) {
	var images *models.ImageCounts
	if !o.cfg.SkipImages {
		images = &result.Images
	}

	jsonPath := filepath.Join(dir, pipeline.DataFile)
	if err := pipeline.WriteJSON(jsonPath, data); err != nil {
		o.logger.Error("writing json failed", slog.String("path", jsonPath), slog.Any("error", err))
		data.AddError(jsonPath, err)
	}
	// Written last so it reports every recorded problem.
	summaryPath := filepath.Join(dir, pipeline.SummaryFile)
	if err := pipeline.WriteSummary(summaryPath, data, images); err != nil {
		o.logger.Error("writing summary failed", slog.String("path", summaryPath), slog.Any("error", err))
		data.AddError(summaryPath, err)
	}
	o.logger.Info("outputs written", slog.String("dir", dir))
}

func (o *Orchestrator) finish(result *models.RunResult) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	if data := result.Data; data != nil {
		result.Errors = append(result.Errors, data.Errors...)
		result.Warnings = len(data.Warnings)
		result.PageCount = len(data.PagesVisited)
		result.Listings = len(data.Listings)
		result.CvEntries = len(data.CvEntries)
		result.Platform = data.Platform
	}
	result.Success = len(result.Errors) == 0
	o.logger.Info("run finished",
		slog.String("run_id", result.RunID),
		slog.Bool("success", result.Success),
		slog.Int("errors", len(result.Errors)),
		slog.Duration("duration", result.Duration),
	)
}

// slug derives the artist directory name once per run: the configured
// name, else the extracted name, else the hostname.
func (o *Orchestrator) slug(result *models.RunResult, data *models.ScrapedArtistData) string {
	if result.ArtistSlug == "" {
		result.ArtistSlug = ArtistSlug(o.cfg.ArtistName, data)
	}
	return result.ArtistSlug
}

func rootError(resp *fetch.Response) error {
	if resp.Err != nil {
		return resp.Err
	}
	return fmt.Errorf("http status %d", resp.Status)
}

// ArtistSlug picks the output directory name.
func ArtistSlug(explicit string, data *models.ScrapedArtistData) string {
	if s := parser.Slugify(explicit); s != "" {
		return s
	}
	if data.Name != nil {
		if s := parser.Slugify(data.Name.Value); s != "" {
			return s
		}
	}
	if u, err := url.Parse(data.WebsiteURL); err == nil {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if s := parser.Slugify(host); s != "" {
			return s
		}
	}
	return "artist"
}
