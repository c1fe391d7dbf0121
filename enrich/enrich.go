// Package enrich talks to the external text-enrichment service and merges
// its suggestions into a scraped record.
package enrich

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/aluiziolira/go-scrape-artists/models"
)

const maxPageText = 20000

// PageText is the visible text of one visited page.
type PageText struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Request is sent to the enrichment service.
type Request struct {
	WebsiteURL string                    `json:"websiteUrl"`
	ArtistName string                    `json:"artistName"`
	Pages      []PageText                `json:"pages"`
	Partial    *models.ScrapedArtistData `json:"partial"`
}

// CvEntry is a CV line suggested by the service.
type CvEntry struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Institution string `json:"institution"`
	Year        int    `json:"year"`
}

// Improvements are the fields the service could fill. Absent values are
// left alone.
type Improvements struct {
	Bio             string    `json:"bio"`
	ArtistStatement string    `json:"artistStatement"`
	Location        string    `json:"location"`
	CvEntries       []CvEntry `json:"cvEntries"`
	Categories      []string  `json:"categories"`
}

// Enricher turns raw page text plus a partial record into improvements.
type Enricher interface {
	Enrich(ctx context.Context, req Request) (*Improvements, error)
}

// Client is the HTTP Enricher.
type Client struct {
	client   *resty.Client
	endpoint string
}

// NewClient posts requests to endpoint, authenticating with apiKey when set.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &Client{client: client, endpoint: endpoint}
}

// WithTransport swaps the HTTP transport, for tests.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.client.SetTransport(rt)
}

func (c *Client) Enrich(ctx context.Context, req Request) (*Improvements, error) {
	for i := range req.Pages {
		if len(req.Pages[i].Text) > maxPageText {
			req.Pages[i].Text = req.Pages[i].Text[:maxPageText]
		}
	}

	var out Improvements
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("enrichment request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("enrichment service returned status %d", resp.StatusCode())
	}
	return &out, nil
}

// Apply fills still-empty fields of data from imp at low confidence and
// returns the names of the fields it filled.
func Apply(data *models.ScrapedArtistData, imp *Improvements, sourceURL string) []string {
	if imp == nil {
		return nil
	}
	var filled []string
	fill := func(name string, dst **models.ExtractedField[string], value string) {
		if *dst != nil {
			return
		}
		if field := models.TextField(value, models.ConfidenceLow, sourceURL); field != nil {
			*dst = field
			filled = append(filled, name)
		}
	}
	fill("bio", &data.Bio, imp.Bio)
	fill("artistStatement", &data.ArtistStatement, imp.ArtistStatement)
	fill("location", &data.Location, imp.Location)

	if len(data.CvEntries) == 0 && len(imp.CvEntries) > 0 {
		for _, e := range imp.CvEntries {
			entry := models.ScrapedCvEntry{
				Type:        cvType(e.Type),
				Title:       models.TextField(e.Title, models.ConfidenceLow, sourceURL),
				Institution: models.TextField(e.Institution, models.ConfidenceLow, sourceURL),
			}
			if e.Year > 0 {
				entry.Year = models.NewField(e.Year, models.ConfidenceLow, sourceURL)
			}
			if entry.Title == nil {
				continue
			}
			data.CvEntries = append(data.CvEntries, entry)
		}
		if len(data.CvEntries) > 0 {
			filled = append(filled, "cvEntries")
		}
	}

	if data.SuggestedCategories == nil && len(imp.Categories) > 0 {
		var categories []string
		for _, c := range imp.Categories {
			if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
				categories = append(categories, c)
			}
		}
		if len(categories) > 0 {
			data.SuggestedCategories = models.NewField(categories, models.ConfidenceLow, sourceURL)
			filled = append(filled, "suggestedCategories")
		}
	}
	return filled
}

func cvType(raw string) models.CvEntryType {
	switch t := models.CvEntryType(strings.ToLower(strings.TrimSpace(raw))); t {
	case models.CvExhibition, models.CvAward, models.CvEducation, models.CvPress, models.CvResidency:
		return t
	}
	return models.CvOther
}
