package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/aluiziolira/go-scrape-artists/enrich"
	"github.com/aluiziolira/go-scrape-artists/fetch"
	"github.com/aluiziolira/go-scrape-artists/models"
	"github.com/aluiziolira/go-scrape-artists/parser"
)

// enrichPagePattern selects visited pages worth sending for enrichment.
var enrichPagePattern = regexp.MustCompile(`(?i)(cv|resume|about|bio|statement)`)

// enrich sends CV and bio pages plus the partial record to the enrichment
// service and fills still-empty fields from its answer. Every failure here
// is a warning: enrichment is optional.
func (o *Orchestrator) enrich(ctx context.Context, data *models.ScrapedArtistData) {
	if o.cfg.SkipAI {
		o.logger.Debug("enrichment disabled")
		return
	}
	pages := o.enrichmentPages(ctx, data)
	if len(pages) == 0 {
		o.logger.Debug("no pages to enrich")
		return
	}
	if o.enricher == nil {
		data.AddWarning("enrichment skipped: no enrichment endpoint configured")
		return
	}

	name := o.cfg.ArtistName
	if name == "" && data.Name != nil {
		name = data.Name.Value
	}
	imp, err := o.enricher.Enrich(ctx, enrich.Request{
		WebsiteURL: data.WebsiteURL,
		ArtistName: name,
		Pages:      pages,
		Partial:    data,
	})
	if err != nil {
		o.logger.Warn("enrichment failed", slog.Any("error", err))
		data.AddWarning(fmt.Sprintf("enrichment failed: %v", err))
		return
	}
	filled := enrich.Apply(data, imp, pages[0].URL)
	o.logger.Info("enrichment applied",
		slog.Int("pages", len(pages)),
		slog.String("filled", strings.Join(filled, ",")),
	)
}

// enrichmentPages refetches visited pages whose path looks like a CV or
// bio page and returns their visible text.
func (o *Orchestrator) enrichmentPages(ctx context.Context, data *models.ScrapedArtistData) []enrich.PageText {
	var pages []enrich.PageText
	for _, visited := range data.PagesVisited {
		u, err := url.Parse(visited)
		if err != nil || !enrichPagePattern.MatchString(u.Path) {
			continue
		}
		resp := o.fetcher.Get(ctx, visited, fetch.Options{})
		if !resp.OK {
			o.logger.Debug("enrichment page unavailable", slog.String("url", visited), slog.Int("status", resp.Status))
			continue
		}
		doc, err := parser.NewDocument(string(resp.Body))
		if err != nil {
			continue
		}
		if text := parser.BodyText(doc); text != "" {
			pages = append(pages, enrich.PageText{URL: visited, Text: text})
		}
	}
	return pages
}
