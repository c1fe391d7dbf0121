// Package models defines data structures for the scraper.
package models

import (
	"strings"
	"time"
)

// Confidence is a coarse reviewer-facing trust label.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidences; unknown values rank lowest.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// Lower returns the next confidence level down, bottoming out at low.
func (c Confidence) Lower() Confidence {
	if c == ConfidenceHigh {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// ExtractedField wraps an extracted value with its confidence and origin.
// A nil *ExtractedField means nothing was found.
type ExtractedField[T any] struct {
	Value      T          `json:"value"`
	Confidence Confidence `json:"confidence"`
	SourceURL  string     `json:"sourceUrl,omitempty"`
}

// NewField returns a field for value.
func NewField[T any](value T, confidence Confidence, sourceURL string) *ExtractedField[T] {
	return &ExtractedField[T]{Value: value, Confidence: confidence, SourceURL: sourceURL}
}

// TextField returns nil for blank text so absence is never an empty string.
func TextField(value string, confidence Confidence, sourceURL string) *ExtractedField[string] {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return NewField(value, confidence, sourceURL)
}

// Platform tags produced by the detector.
type Platform string

const (
	PlatformSquarespace Platform = "squarespace"
	PlatformWix         Platform = "wix"
	PlatformWordPress   Platform = "wordpress"
	PlatformShopify     Platform = "shopify"
	PlatformGeneric     Platform = "generic"
)

// DetectedPlatform is the detector output. Hints carry platform-specific
// identifiers for the matching strategy.
type DetectedPlatform struct {
	Platform Platform          `json:"platform"`
	Hints    map[string]string `json:"hints,omitempty"`
}

// ImageContext tags where an image was found.
type ImageContext string

const (
	ImageProfile ImageContext = "profile"
	ImageCover   ImageContext = "cover"
	ImageProcess ImageContext = "process"
	ImageListing ImageContext = "listing"
	ImageUnknown ImageContext = "unknown"
)

// ScrapedImage is a discovered image. URL is its identity.
type ScrapedImage struct {
	URL     string       `json:"url"`
	Alt     string       `json:"alt,omitempty"`
	Context ImageContext `json:"context"`
	PageURL string       `json:"pageUrl"`
}

// DimensionUnit is the unit of a ParsedDimensions value.
type DimensionUnit string

const (
	UnitInches      DimensionUnit = "in"
	UnitCentimeters DimensionUnit = "cm"
	UnitMillimeters DimensionUnit = "mm"
)

// ParsedDimensions holds up to three axes. At least one axis is set.
type ParsedDimensions struct {
	Length *float64      `json:"length"`
	Width  *float64      `json:"width"`
	Height *float64      `json:"height"`
	Unit   DimensionUnit `json:"unit"`
}

// ScrapedListing is a work offered for sale.
type ScrapedListing struct {
	Title       *ExtractedField[string]           `json:"title"`
	Description *ExtractedField[string]           `json:"description"`
	Medium      *ExtractedField[string]           `json:"medium"`
	Price       *ExtractedField[int64]            `json:"price"`
	Dimensions  *ExtractedField[ParsedDimensions] `json:"dimensions"`
	IsSoldOut   bool                              `json:"isSoldOut"`
	Images      []ScrapedImage                    `json:"images"`
	SourceURL   string                            `json:"sourceUrl,omitempty"`
}

// CvEntryType classifies a CV line.
type CvEntryType string

const (
	CvExhibition CvEntryType = "exhibition"
	CvAward      CvEntryType = "award"
	CvEducation  CvEntryType = "education"
	CvPress      CvEntryType = "press"
	CvResidency  CvEntryType = "residency"
	CvOther      CvEntryType = "other"
)

// ScrapedCvEntry is one exhibition, award, degree, press mention or residency.
type ScrapedCvEntry struct {
	Type        CvEntryType             `json:"type"`
	Title       *ExtractedField[string] `json:"title"`
	Institution *ExtractedField[string] `json:"institution"`
	Year        *ExtractedField[int]    `json:"year"`
}

// SocialLink is a non-Instagram social profile.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// ScrapeError is a per-URL failure recorded during a run.
type ScrapeError struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// ScrapedArtistData is the root aggregate of a run.
type ScrapedArtistData struct {
	WebsiteURL   string    `json:"websiteUrl"`
	Platform     Platform  `json:"platform"`
	PagesVisited []string  `json:"pagesVisited"`
	ScrapedAt    time.Time `json:"scrapedAt"`

	Name             *ExtractedField[string] `json:"name"`
	Bio              *ExtractedField[string] `json:"bio"`
	ArtistStatement  *ExtractedField[string] `json:"artistStatement"`
	Location         *ExtractedField[string] `json:"location"`
	Email            *ExtractedField[string] `json:"email"`
	InstagramURL     string                  `json:"instagramUrl,omitempty"`
	OtherSocialLinks []SocialLink            `json:"otherSocialLinks"`

	ProfileImages []ScrapedImage `json:"profileImages"`
	CoverImages   []ScrapedImage `json:"coverImages"`
	ProcessImages []ScrapedImage `json:"processImages"`

	CvEntries           []ScrapedCvEntry          `json:"cvEntries"`
	Listings            []ScrapedListing          `json:"listings"`
	SuggestedCategories *ExtractedField[[]string] `json:"suggestedCategories"`

	Errors   []ScrapeError `json:"errors"`
	Warnings []string      `json:"warnings"`
}

// NewScrapedArtistData returns the empty template for a run.
func NewScrapedArtistData(websiteURL string, platform Platform) *ScrapedArtistData {
	return &ScrapedArtistData{
		WebsiteURL:       websiteURL,
		Platform:         platform,
		PagesVisited:     []string{},
		ScrapedAt:        time.Now().UTC(),
		OtherSocialLinks: []SocialLink{},
		ProfileImages:    []ScrapedImage{},
		CoverImages:      []ScrapedImage{},
		ProcessImages:    []ScrapedImage{},
		CvEntries:        []ScrapedCvEntry{},
		Listings:         []ScrapedListing{},
		Errors:           []ScrapeError{},
		Warnings:         []string{},
	}
}

// AddError appends a per-URL error.
func (d *ScrapedArtistData) AddError(url string, err error) {
	if err == nil {
		return
	}
	d.Errors = append(d.Errors, ScrapeError{URL: url, Error: err.Error()})
}

// AddWarning appends a warning.
func (d *ScrapedArtistData) AddWarning(msg string) {
	d.Warnings = append(d.Warnings, msg)
}

// MarkVisited records a page URL once.
func (d *ScrapedArtistData) MarkVisited(url string) {
	for _, seen := range d.PagesVisited {
		if seen == url {
			return
		}
	}
	d.PagesVisited = append(d.PagesVisited, url)
}

// AddImage appends img to the bucket for its context, skipping repeats.
// Listing images are owned by their listing and are ignored here.
func (d *ScrapedArtistData) AddImage(img ScrapedImage) {
	var bucket *[]ScrapedImage
	switch img.Context {
	case ImageProfile:
		bucket = &d.ProfileImages
	case ImageCover:
		bucket = &d.CoverImages
	case ImageProcess:
		bucket = &d.ProcessImages
	default:
		return
	}
	for _, existing := range *bucket {
		if existing.URL == img.URL {
			return
		}
	}
	*bucket = append(*bucket, img)
}

// AddSocial records a social profile URL. Instagram goes to InstagramURL.
func (d *ScrapedArtistData) AddSocial(platform, url string) {
	if platform == "instagram" {
		if d.InstagramURL == "" {
			d.InstagramURL = url
		}
		return
	}
	for _, link := range d.OtherSocialLinks {
		if link.Platform == platform {
			return
		}
	}
	d.OtherSocialLinks = append(d.OtherSocialLinks, SocialLink{Platform: platform, URL: url})
}

// NavLink is a classified outbound link.
type NavLink struct {
	URL      string `json:"url"`
	Text     string `json:"text"`
	Hint     string `json:"hint"`
	Priority int    `json:"priority"`
}
