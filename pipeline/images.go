// Package pipeline turns a finished record into files: the image tree,
// scraped-data.json and summary.md.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-scrape-artists/config"
	"github.com/aluiziolira/go-scrape-artists/fetch"
	"github.com/aluiziolira/go-scrape-artists/models"
	"github.com/aluiziolira/go-scrape-artists/parser"
)

// Download outcomes, also used as metric labels.
const (
	OutcomeDownloaded = "downloaded"
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"
)

const maxImageBytes = 50 << 20

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".avif": true,
}

// ImageJob is one image to fetch. Path is relative to the artist directory.
type ImageJob struct {
	URL     string
	Path    string
	Context models.ImageContext
}

// BuildWorkList flattens every image bucket into jobs, one per distinct URL.
// The first reference to a URL decides its directory.
func BuildWorkList(data *models.ScrapedArtistData) []ImageJob {
	var jobs []ImageJob
	seen := make(map[string]bool)
	counters := make(map[string]int)

	add := func(dir string, img models.ScrapedImage, ctx models.ImageContext) {
		if img.URL == "" || seen[img.URL] {
			return
		}
		seen[img.URL] = true
		counters[dir]++
		name := fmt.Sprintf("%02d%s", counters[dir], extensionFor(img.URL))
		jobs = append(jobs, ImageJob{
			URL:     img.URL,
			Path:    path.Join(dir, name),
			Context: ctx,
		})
	}

	for _, img := range data.ProfileImages {
		add("profile", img, models.ImageProfile)
	}
	for _, img := range data.CoverImages {
		add("cover", img, models.ImageCover)
	}
	for _, img := range data.ProcessImages {
		add("process", img, models.ImageProcess)
	}
	for i, listing := range data.Listings {
		slug := "untitled"
		if listing.Title != nil {
			if s := parser.Slugify(listing.Title.Value); s != "" {
				slug = s
			}
		}
		dir := path.Join("listings", fmt.Sprintf("%02d-%s", i+1, slug))
		for _, img := range listing.Images {
			add(dir, img, models.ImageListing)
		}
	}
	return jobs
}

func extensionFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == ".jpeg" {
		return ".jpg"
	}
	if imageExtensions[ext] {
		return ext
	}
	return ".jpg"
}

// Downloader fetches image jobs in fixed-size concurrent batches.
type Downloader struct {
	collector *colly.Collector
	batchSize int
	minBytes  int
	metrics   *fetch.Metrics
	logger    *slog.Logger
}

// downloadRun collects outcomes for one Download call.
type downloadRun struct {
	mu     sync.Mutex
	counts models.ImageCounts
}

func (r *downloadRun) record(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch outcome {
	case OutcomeDownloaded:
		r.counts.Downloaded++
	case OutcomeSkipped:
		r.counts.Skipped++
	default:
		r.counts.Failed++
	}
}

// NewDownloader builds a downloader from cfg. metrics may be nil.
func NewDownloader(cfg *config.Config, metrics *fetch.Metrics, logger *slog.Logger) (*Downloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	collector := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
		colly.MaxBodySize(maxImageBytes),
	)
	collector.SetRequestTimeout(cfg.DownloadTimeout)
	collector.IgnoreRobotsTxt = true

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.DownloadBatchSize,
	}); err != nil {
		return nil, fmt.Errorf("configure download limits: %w", err)
	}

	d := &Downloader{
		collector: collector,
		batchSize: cfg.DownloadBatchSize,
		minBytes:  cfg.MinImageBytes,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "downloader")),
	}
	d.configureHandlers()
	return d, nil
}

// WithTransport swaps the HTTP transport, for tests.
func (d *Downloader) WithTransport(rt http.RoundTripper) {
	d.collector.WithTransport(rt)
}

func (d *Downloader) configureHandlers() {
	d.collector.OnResponse(func(r *colly.Response) {
		run, _ := r.Ctx.GetAny("run").(*downloadRun)
		target := r.Ctx.Get("target")
		outcome := OutcomeDownloaded

		switch {
		case len(r.Body) < d.minBytes:
			outcome = OutcomeSkipped
			d.logger.Debug("image below size threshold",
				slog.String("url", r.Request.URL.String()),
				slog.Int("bytes", len(r.Body)),
			)
		default:
			if err := writeFile(target, r.Body); err != nil {
				outcome = OutcomeFailed
				d.logger.Warn("image write failed", slog.String("path", target), slog.Any("error", err))
			}
		}
		d.finish(run, outcome)
	})

	d.collector.OnError(func(r *colly.Response, err error) {
		var run *downloadRun
		rawURL := ""
		if r != nil && r.Ctx != nil {
			run, _ = r.Ctx.GetAny("run").(*downloadRun)
		}
		if r != nil && r.Request != nil && r.Request.URL != nil {
			rawURL = r.Request.URL.String()
		}
		d.logger.Warn("image download failed", slog.String("url", rawURL), slog.Any("error", err))
		d.finish(run, OutcomeFailed)
	})
}

func (d *Downloader) finish(run *downloadRun, outcome string) {
	d.metrics.IncDownload(outcome)
	if run != nil {
		run.record(outcome)
	}
}

// Download fetches jobs into dir. One image failing never stops the rest;
// jobs not yet started when ctx is cancelled count as failed.
func (d *Downloader) Download(ctx context.Context, dir string, jobs []ImageJob) models.ImageCounts {
	run := &downloadRun{}
	for start := 0; start < len(jobs); start += d.batchSize {
		if ctx.Err() != nil {
			for range jobs[start:] {
				d.finish(run, OutcomeFailed)
			}
			break
		}
		end := min(start+d.batchSize, len(jobs))
		for _, job := range jobs[start:end] {
			reqCtx := colly.NewContext()
			reqCtx.Put("run", run)
			reqCtx.Put("target", filepath.Join(dir, filepath.FromSlash(job.Path)))
			if err := d.collector.Request(http.MethodGet, job.URL, nil, reqCtx, nil); err != nil {
				d.logger.Warn("image request rejected", slog.String("url", job.URL), slog.Any("error", err))
				d.finish(run, OutcomeFailed)
			}
		}
		d.collector.Wait()
		d.logger.Debug("download batch complete",
			slog.Int("from", start),
			slog.Int("to", end),
			slog.Int("total", len(jobs)),
		)
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	return run.counts
}

func writeFile(filename string, body []byte) error {
	if err := ensureDir(filename); err != nil {
		return err
	}
	return os.WriteFile(filename, body, 0o644)
}
