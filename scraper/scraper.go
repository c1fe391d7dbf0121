// Package scraper holds the extraction strategies. Each strategy fills a
// ScrapedArtistData created by the orchestrator.
package scraper

import (
	"context"
	"fmt"

	"github.com/aluiziolira/go-scrape-artists/fetch"
	"github.com/aluiziolira/go-scrape-artists/models"
)

// Strategy names as reported in the run result.
const (
	NameStructured = "squarespace-api"
	NameGeneric    = "generic-dom"
	NameBrowser    = "browser"
)

// Options carries per-run inputs shared by all strategies.
type Options struct {
	// Root is the already-fetched root page, if any. Strategies refetch
	// when it is nil or failed.
	Root     *fetch.Response
	Platform models.DetectedPlatform
	// MaxPages bounds the secondary pages visited after the root.
	MaxPages      int
	MinImageWidth int
	// ScreenshotDir receives full-page PNGs from the browser strategy.
	// Empty disables screenshots.
	ScreenshotDir string
}

// Strategy extracts an artist profile into data. Per-URL failures are
// recorded in data.Errors; the returned error is reserved for failures of
// the strategy as a whole, such as a browser that cannot start.
type Strategy interface {
	Name() string
	Scrape(ctx context.Context, data *models.ScrapedArtistData, opts Options) error
}

func responseError(resp *fetch.Response) error {
	if resp.Err != nil {
		return resp.Err
	}
	return fmt.Errorf("http status %d", resp.Status)
}
