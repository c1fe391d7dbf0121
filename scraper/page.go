package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-artists/models"
	"github.com/aluiziolira/go-scrape-artists/parser"
)

const (
	hintRoot = "root"

	minBioLength     = 60
	maxImagesPerPage = 12
)

// pageExtractor applies the DOM extractors to successive pages of one site
// and merges the results into a single record. Values found with higher
// confidence, or on a more specific page, replace earlier ones.
type pageExtractor struct {
	data     *models.ScrapedArtistData
	minWidth int

	bioScore    int
	listingKeys map[string]int
	cvKeys      map[string]bool
}

func newPageExtractor(data *models.ScrapedArtistData, minWidth int) *pageExtractor {
	p := &pageExtractor{
		data:        data,
		minWidth:    minWidth,
		listingKeys: map[string]int{},
		cvKeys:      map[string]bool{},
	}
	for i, l := range data.Listings {
		p.listingKeys[listingKey(l)] = i
	}
	for _, e := range data.CvEntries {
		p.cvKeys[cvKey(e)] = true
	}
	return p
}

func pageRank(hint string) int {
	switch hint {
	case "about":
		return 3
	case hintRoot:
		return 1
	}
	return 2
}

// extract reads one page. conf is the confidence of the most direct signals
// on the page; inferred values are recorded one level lower.
func (p *pageExtractor) extract(doc *goquery.Document, pageURL *url.URL, hint string, conf models.Confidence) {
	src := pageURL.String()
	data := p.data

	if hint == hintRoot {
		upgradeText(&data.Name, parser.SiteName(doc), conf.Lower(), src)
		if cover, ok := parser.Resolve(pageURL, parser.MetaContent(doc, `meta[property="og:image"]`, `meta[name="twitter:image"]`)); ok {
			data.AddImage(models.ScrapedImage{URL: cover, Context: models.ImageCover, PageURL: src})
		}
	}

	if paragraph := parser.LongestParagraph(doc, minBioLength); paragraph != "" {
		if hint == "statement" {
			upgradeText(&data.ArtistStatement, paragraph, conf, src)
		} else {
			bioConf := conf.Lower()
			if hint == "about" {
				bioConf = conf
			}
			if score := bioConf.Rank()*10 + pageRank(hint); score > p.bioScore {
				data.Bio = models.TextField(paragraph, bioConf, src)
				p.bioScore = score
			}
		}
	}

	if data.Email == nil {
		if emails := parser.ExtractEmails(doc); len(emails) > 0 {
			data.Email = models.TextField(emails[0], conf, src)
		}
	}
	for _, link := range parser.ExtractSocialLinks(doc) {
		data.AddSocial(link.Platform, link.URL)
	}
	if data.Location == nil {
		data.Location = models.TextField(parser.ExtractLocation(doc), conf.Lower(), src)
	}

	listingImages := map[string]bool{}
	for _, c := range parser.ExtractListings(doc, pageURL, p.minWidth) {
		for _, img := range c.Images {
			listingImages[img.URL] = true
		}
		p.addListing(listingFromCandidate(c, src, conf))
	}

	if imgContext, ok := imageContextFor(hint); ok {
		added := 0
		for _, img := range parser.ExtractImages(doc.Find("body"), pageURL, p.minWidth) {
			if listingImages[img.URL] || added >= maxImagesPerPage {
				continue
			}
			data.AddImage(models.ScrapedImage{URL: img.URL, Alt: img.Alt, Context: imgContext, PageURL: src})
			added++
		}
	}

	// CV parsing rewrites <br> tags in doc, so it runs last.
	if hint == "cv" || hint == "about" {
		for _, c := range parser.ExtractCvEntries(doc, models.CvOther) {
			p.addCv(models.ScrapedCvEntry{
				Type:        c.Type,
				Title:       models.TextField(c.Title, conf.Lower(), src),
				Institution: models.TextField(c.Institution, conf.Lower(), src),
				Year:        models.NewField(c.Year, conf, src),
			})
		}
	}
}

func imageContextFor(hint string) (models.ImageContext, bool) {
	switch hint {
	case hintRoot:
		return models.ImageCover, true
	case "about":
		return models.ImageProfile, true
	case "process":
		return models.ImageProcess, true
	}
	return "", false
}

func listingFromCandidate(c parser.ListingCandidate, src string, conf models.Confidence) models.ScrapedListing {
	inferred := conf.Lower()
	listing := models.ScrapedListing{
		Title:       models.TextField(c.Title, conf, src),
		Description: models.TextField(c.Description, inferred, src),
		Medium:      models.TextField(c.Medium, inferred, src),
		IsSoldOut:   c.SoldOut,
		Images:      []models.ScrapedImage{},
		SourceURL:   src,
	}
	price := parser.ParsePrice(c.PriceText)
	if price.Cents != nil {
		listing.Price = models.NewField(*price.Cents, inferred, src)
	}
	if price.IsSoldOut {
		listing.IsSoldOut = true
	}
	if c.Dimensions != "" {
		if dims := parser.ParseDimensions(c.Dimensions); dims != nil {
			listing.Dimensions = models.NewField(*dims, inferred, src)
		}
	}
	for _, img := range c.Images {
		listing.Images = append(listing.Images, models.ScrapedImage{
			URL:     img.URL,
			Alt:     img.Alt,
			Context: models.ImageListing,
			PageURL: src,
		})
	}
	return listing
}

func listingKey(l models.ScrapedListing) string {
	if l.Title != nil {
		return "title:" + strings.ToLower(l.Title.Value)
	}
	if len(l.Images) > 0 {
		return "image:" + l.Images[0].URL
	}
	return "source:" + l.SourceURL + ":" + strconv.FormatBool(l.IsSoldOut)
}

// addListing appends l, or replaces an earlier listing with the same key
// when l's title was read with higher confidence.
func (p *pageExtractor) addListing(l models.ScrapedListing) {
	key := listingKey(l)
	if i, ok := p.listingKeys[key]; ok {
		if titleRank(l) > titleRank(p.data.Listings[i]) {
			p.data.Listings[i] = l
		}
		return
	}
	p.listingKeys[key] = len(p.data.Listings)
	p.data.Listings = append(p.data.Listings, l)
}

func titleRank(l models.ScrapedListing) int {
	if l.Title == nil {
		return 0
	}
	return l.Title.Confidence.Rank()
}

func cvKey(e models.ScrapedCvEntry) string {
	title, year := "", 0
	if e.Title != nil {
		title = strings.ToLower(e.Title.Value)
	}
	if e.Year != nil {
		year = e.Year.Value
	}
	return string(e.Type) + "|" + title + "|" + strconv.Itoa(year)
}

func (p *pageExtractor) addCv(e models.ScrapedCvEntry) {
	key := cvKey(e)
	if p.cvKeys[key] {
		return
	}
	p.cvKeys[key] = true
	p.data.CvEntries = append(p.data.CvEntries, e)
}

// finish derives record-level fields once every page has been read.
func (p *pageExtractor) finish() {
	data := p.data
	if data.SuggestedCategories != nil {
		return
	}
	var texts []string
	for _, f := range []*models.ExtractedField[string]{data.Bio, data.ArtistStatement} {
		if f != nil {
			texts = append(texts, f.Value)
		}
	}
	for _, l := range data.Listings {
		for _, f := range []*models.ExtractedField[string]{l.Title, l.Medium, l.Description} {
			if f != nil {
				texts = append(texts, f.Value)
			}
		}
	}
	if categories := parser.InferCategories(texts...); len(categories) > 0 {
		data.SuggestedCategories = models.NewField(categories, models.ConfidenceLow, data.WebsiteURL)
	}
}

// upgradeText sets *dst when it is empty or value carries a higher
// confidence than the current field.
func upgradeText(dst **models.ExtractedField[string], value string, conf models.Confidence, src string) {
	field := models.TextField(value, conf, src)
	if field == nil {
		return
	}
	if *dst == nil || conf.Rank() > (*dst).Confidence.Rank() {
		*dst = field
	}
}

// page is a loaded document ready for extraction.
type page struct {
	URL  *url.URL
	Doc  *goquery.Document
	Hint string
}

// pageLoader loads link, recording failures in data. ok is false when the
// page should be skipped.
type pageLoader func(ctx context.Context, data *models.ScrapedArtistData, link models.NavLink) (*page, bool)

// crawlSecondary walks the classified navigation links of root, highest
// priority first, visiting at most maxPages pages not yet seen.
func crawlSecondary(ctx context.Context, data *models.ScrapedArtistData, root *page, maxPages int, load pageLoader, visit func(*page), logger *slog.Logger) {
	links := parser.ClassifyNavLinks(root.Doc, root.URL)
	logger.Debug("classified navigation links", slog.Int("links", len(links)), slog.String("url", root.URL.String()))

	visited := 0
	for _, link := range links {
		if visited >= maxPages || ctx.Err() != nil {
			break
		}
		if seen(data, link.URL) {
			continue
		}
		pg, ok := load(ctx, data, link)
		if !ok {
			continue
		}
		visited++
		data.MarkVisited(pg.URL.String())
		visit(pg)
	}
}

func seen(data *models.ScrapedArtistData, rawURL string) bool {
	for _, u := range data.PagesVisited {
		if strings.TrimSuffix(u, "/") == strings.TrimSuffix(rawURL, "/") {
			return true
		}
	}
	return false
}
