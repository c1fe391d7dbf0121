package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aluiziolira/go-scrape-artists/fetch"
	"github.com/aluiziolira/go-scrape-artists/models"
	"github.com/aluiziolira/go-scrape-artists/parser"
)

// Squarespace JSON view, as returned for any page with ?format=json.
type sqsPage struct {
	Website     *sqsWebsite    `json:"website"`
	Collection  *sqsCollection `json:"collection"`
	Items       []sqsItem      `json:"items"`
	Item        *sqsItem       `json:"item"`
	MainContent string         `json:"mainContent"`
}

type sqsWebsite struct {
	ID             string `json:"id"`
	SiteTitle      string `json:"siteTitle"`
	ContactEmail   string `json:"contactEmail"`
	SocialAccounts []struct {
		ServiceName string `json:"serviceName"`
		ProfileURL  string `json:"profileUrl"`
	} `json:"socialAccounts"`
	Location *struct {
		AddressLine2   string `json:"addressLine2"`
		AddressCountry string `json:"addressCountry"`
	} `json:"location"`
	LogoImageURL string `json:"logoImageUrl"`
}

type sqsCollection struct {
	Title    string `json:"title"`
	FullURL  string `json:"fullUrl"`
	TypeName string `json:"typeName"`
}

type sqsItem struct {
	Title             string                `json:"title"`
	FullURL           string                `json:"fullUrl"`
	AssetURL          string                `json:"assetUrl"`
	Excerpt           string                `json:"excerpt"`
	Body              string                `json:"body"`
	RecordTypeLabel   string                `json:"recordTypeLabel"`
	StructuredContent *sqsStructuredContent `json:"structuredContent"`
	Items             []sqsItem             `json:"items"`
}

type sqsStructuredContent struct {
	ProductType int          `json:"productType"`
	Variants    []sqsVariant `json:"variants"`
}

type sqsVariant struct {
	Price      int64 `json:"price"`
	OnSale     bool  `json:"onSale"`
	SalePrice  int64 `json:"salePrice"`
	PriceMoney *struct {
		Currency string `json:"currency"`
		Value    string `json:"value"`
	} `json:"priceMoney"`
	QtyInStock int               `json:"qtyInStock"`
	Unlimited  bool              `json:"unlimited"`
	Attributes map[string]string `json:"attributes"`
}

// cents returns the variant price in cents, preferring the sale price.
func (v sqsVariant) cents() (int64, bool) {
	if v.OnSale && v.SalePrice > 0 {
		return v.SalePrice, true
	}
	if v.Price > 0 {
		return v.Price, true
	}
	if v.PriceMoney != nil {
		if parsed := parser.ParsePrice(v.PriceMoney.Value); parsed.Cents != nil {
			return *parsed.Cents, true
		}
	}
	return 0, false
}

func (v sqsVariant) inStock() bool {
	return v.Unlimited || v.QtyInStock > 0
}

// SquarespaceScraper reads the platform's JSON page views, which carry
// typed prices and stock levels. Pages whose JSON cannot be read fall back
// to DOM extraction.
type SquarespaceScraper struct {
	fetcher *fetch.Fetcher
	generic *GenericScraper
	logger  *slog.Logger
}

// NewSquarespaceScraper returns the structured-API strategy.
func NewSquarespaceScraper(f *fetch.Fetcher, logger *slog.Logger) *SquarespaceScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &SquarespaceScraper{
		fetcher: f,
		generic: NewGenericScraper(f, logger),
		logger:  logger.With(slog.String("component", "squarespace_scraper")),
	}
}

func (s *SquarespaceScraper) Name() string { return NameStructured }

func (s *SquarespaceScraper) Scrape(ctx context.Context, data *models.ScrapedArtistData, opts Options) error {
	root, ok := s.generic.loadRoot(ctx, data, opts.Root)
	if !ok {
		return nil
	}
	ex := newPageExtractor(data, opts.MinImageWidth)

	rootJSON, err := s.fetchJSON(ctx, root.URL.String())
	if err != nil {
		data.AddWarning(fmt.Sprintf("structured data unavailable for %s (%v); using HTML extraction", root.URL, err))
		s.generic.scrapeFrom(ctx, data, root, ex, opts, models.ConfidenceMedium)
		ex.finish()
		return nil
	}

	// Root HTML still supplies og:image and anything outside mainContent.
	ex.extract(root.Doc, root.URL, hintRoot, models.ConfidenceMedium)
	s.applyWebsite(data, rootJSON.Website, root.URL.String())
	s.applyPage(ex, rootJSON, root.URL, hintRoot)

	crawlSecondary(ctx, data, root, opts.MaxPages, s.generic.loadLink, func(pg *page) {
		pageJSON, err := s.fetchJSON(ctx, pg.URL.String())
		if err != nil {
			data.AddWarning(fmt.Sprintf("structured data unavailable for %s (%v); using HTML extraction", pg.URL, err))
			ex.extract(pg.Doc, pg.URL, pg.Hint, models.ConfidenceMedium)
			return
		}
		s.applyPage(ex, pageJSON, pg.URL, pg.Hint)
	}, s.logger)

	ex.finish()
	return nil
}

func (s *SquarespaceScraper) fetchJSON(ctx context.Context, pageURL string) (*sqsPage, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	resp := s.fetcher.Get(ctx, u.String(), fetch.Options{AcceptJSON: true})
	if !resp.OK {
		return nil, responseError(resp)
	}
	var out sqsPage
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &out, nil
}

func (s *SquarespaceScraper) applyWebsite(data *models.ScrapedArtistData, site *sqsWebsite, src string) {
	if site == nil {
		return
	}
	upgradeText(&data.Name, site.SiteTitle, models.ConfidenceHigh, src)
	upgradeText(&data.Email, site.ContactEmail, models.ConfidenceHigh, src)
	if site.Location != nil {
		upgradeText(&data.Location, site.Location.AddressLine2, models.ConfidenceHigh, src)
	}
	for _, account := range site.SocialAccounts {
		if account.ProfileURL == "" {
			continue
		}
		data.AddSocial(strings.ToLower(account.ServiceName), account.ProfileURL)
	}
}

// applyPage feeds mainContent to the DOM extractors and turns product
// items into listings.
func (s *SquarespaceScraper) applyPage(ex *pageExtractor, pj *sqsPage, pageURL *url.URL, hint string) {
	src := pageURL.String()
	if pj.MainContent != "" {
		if doc, err := parser.NewDocument(pj.MainContent); err == nil {
			ex.extract(doc, pageURL, hint, models.ConfidenceHigh)
		}
	}

	items := pj.Items
	if pj.Item != nil {
		items = append(items, *pj.Item)
	}
	for _, item := range items {
		if item.StructuredContent == nil || len(item.StructuredContent.Variants) == 0 {
			if hint == "process" || hint == "about" {
				s.addItemImage(ex.data, item, pageURL, hint)
			}
			continue
		}
		ex.addListing(s.listingFromItem(item, pageURL))
	}
	s.logger.Debug("structured page applied",
		slog.String("url", src),
		slog.Int("items", len(items)),
	)
}

func (s *SquarespaceScraper) addItemImage(data *models.ScrapedArtistData, item sqsItem, pageURL *url.URL, hint string) {
	imgContext, ok := imageContextFor(hint)
	if !ok || item.AssetURL == "" {
		return
	}
	if abs, ok := parser.Resolve(pageURL, item.AssetURL); ok {
		data.AddImage(models.ScrapedImage{URL: abs, Alt: item.Title, Context: imgContext, PageURL: pageURL.String()})
	}
}

func (s *SquarespaceScraper) listingFromItem(item sqsItem, pageURL *url.URL) models.ScrapedListing {
	src := pageURL.String()
	if item.FullURL != "" {
		if abs, ok := parser.Resolve(pageURL, item.FullURL); ok {
			src = abs
		}
	}

	listing := models.ScrapedListing{
		Title:     models.TextField(item.Title, models.ConfidenceHigh, src),
		Images:    []models.ScrapedImage{},
		SourceURL: src,
	}

	variants := item.StructuredContent.Variants
	inStock := false
	for _, v := range variants {
		if v.inStock() {
			inStock = true
			break
		}
	}
	listing.IsSoldOut = !inStock
	if cents, ok := variants[0].cents(); ok {
		listing.Price = models.NewField(cents, models.ConfidenceHigh, src)
	}

	text := parser.HTMLText(item.Excerpt)
	if text == "" {
		text = parser.HTMLText(item.Body)
	}
	var prose []string
	for _, line := range strings.Split(text, "\n") {
		switch {
		case line == "":
		case listing.Dimensions == nil && parser.LooksLikeDimensions(line):
			if dims := parser.ParseDimensions(line); dims != nil {
				listing.Dimensions = models.NewField(*dims, models.ConfidenceMedium, src)
			}
		default:
			prose = append(prose, line)
		}
	}
	for _, v := range variants {
		for key, value := range v.Attributes {
			k := strings.ToLower(key)
			if listing.Dimensions == nil && (k == "size" || k == "dimensions") {
				if dims := parser.ParseDimensions(value); dims != nil {
					listing.Dimensions = models.NewField(*dims, models.ConfidenceHigh, src)
				}
			}
			if listing.Medium == nil && (k == "medium" || k == "material") {
				listing.Medium = models.TextField(value, models.ConfidenceHigh, src)
			}
		}
	}
	listing.Description = models.TextField(strings.Join(prose, " "), models.ConfidenceMedium, src)

	urls := []string{item.AssetURL}
	for _, sub := range item.Items {
		urls = append(urls, sub.AssetURL)
	}
	seen := map[string]bool{}
	for _, raw := range urls {
		abs, ok := parser.Resolve(pageURL, raw)
		if !ok || seen[abs] {
			continue
		}
		seen[abs] = true
		listing.Images = append(listing.Images, models.ScrapedImage{
			URL:     abs,
			Alt:     item.Title,
			Context: models.ImageListing,
			PageURL: src,
		})
	}
	return listing
}
