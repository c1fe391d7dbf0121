package parser

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/aluiziolira/go-scrape-artists/models"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	spaceRun     = regexp.MustCompile(`\s+`)
	yearPattern  = regexp.MustCompile(`\b(19[4-9]\d|20[0-4]\d)\b`)
	dimsPattern  = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:["″”]|in\b|cm\b|mm\b)?\s*(?:x|×|by)\s*\d`)
	leadingSep   = regexp.MustCompile(`^[\s,.:;\-–—|]+|[\s,.:;\-–—|]+$`)
	srcsetWidth  = regexp.MustCompile(`^(\d+)w$`)
)

// Social platforms, matched against absolute hrefs.
var socialPatterns = []struct {
	platform string
	pattern  *regexp.Regexp
}{
	{"instagram", regexp.MustCompile(`(?i)^https?://(?:www\.)?instagram\.com/([A-Za-z0-9_.]+)/?(?:\?.*)?$`)},
	{"facebook", regexp.MustCompile(`(?i)^https?://(?:www\.|m\.)?facebook\.com/[^/?#]+`)},
	{"twitter", regexp.MustCompile(`(?i)^https?://(?:www\.)?(?:twitter|x)\.com/[A-Za-z0-9_]+/?$`)},
	{"tiktok", regexp.MustCompile(`(?i)^https?://(?:www\.)?tiktok\.com/@[A-Za-z0-9_.]+`)},
	{"youtube", regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube\.com/(?:channel/|c/|user/|@)[^/?#]+`)},
	{"pinterest", regexp.MustCompile(`(?i)^https?://(?:[a-z]{2}\.|www\.)?pinterest\.[a-z.]+/[^/?#]+`)},
	{"linkedin", regexp.MustCompile(`(?i)^https?://(?:[a-z]{2,3}\.)?linkedin\.com/in/[^/?#]+`)},
	{"vimeo", regexp.MustCompile(`(?i)^https?://(?:www\.)?vimeo\.com/[A-Za-z][^/?#]*`)},
	{"etsy", regexp.MustCompile(`(?i)^https?://(?:www\.)?etsy\.com/shop/[^/?#]+`)},
	{"behance", regexp.MustCompile(`(?i)^https?://(?:www\.)?behance\.net/[^/?#]+`)},
	{"threads", regexp.MustCompile(`(?i)^https?://(?:www\.)?threads\.net/@[^/?#]+`)},
}

var instagramReserved = map[string]bool{"p": true, "explore": true, "reel": true, "stories": true, "accounts": true}

// Navigation hints in descending priority. Keywords match the link path
// or its text.
var navRules = []struct {
	hint     string
	priority int
	keywords []string
}{
	{"about", 90, []string{"about", "bio", "biography"}},
	{"cv", 85, []string{"cv", "resume", "exhibitions", "exhibition", "shows", "awards"}},
	{"statement", 80, []string{"statement"}},
	{"shop", 75, []string{"shop", "store", "buy", "available", "prints", "for-sale", "forsale", "sale"}},
	{"works", 60, []string{"works", "work", "portfolio", "gallery", "paintings", "artwork", "artworks", "ceramics", "sculpture", "projects"}},
	{"process", 50, []string{"process", "studio", "behind"}},
	{"press", 45, []string{"press", "news", "publications", "interviews"}},
	{"contact", 40, []string{"contact"}},
}

var skipExtensions = []string{".pdf", ".jpg", ".jpeg", ".png", ".gif", ".webp", ".zip", ".mp4", ".mp3"}

// Clean collapses whitespace.
func Clean(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// NewDocument parses an HTML body.
func NewDocument(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

// LongestParagraph returns the longest <p> outside navigation chrome, or ""
// when none reaches minLen characters.
func LongestParagraph(doc *goquery.Document, minLen int) string {
	best := ""
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if s.Closest("nav, header, footer, form, [class*=price], [class*=product]").Length() > 0 {
			return
		}
		text := Clean(s.Text())
		if len(text) > len(best) {
			best = text
		}
	})
	if len(best) < minLen {
		return ""
	}
	return best
}

// ExtractEmails collects mailto addresses, then sweeps visible text.
func ExtractEmails(doc *goquery.Document) []string {
	seen := map[string]bool{}
	var out []string
	add := func(addr string) {
		addr = strings.ToLower(strings.Trim(addr, " .;,<>"))
		if addr == "" || seen[addr] || !emailPattern.MatchString(addr) {
			return
		}
		for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"} {
			if strings.HasSuffix(addr, ext) {
				return
			}
		}
		if strings.Contains(addr, "sentry") || strings.HasSuffix(addr, "example.com") {
			return
		}
		seen[addr] = true
		out = append(out, addr)
	}

	doc.Find(`a[href^="mailto:"], a[href^="MAILTO:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := href[len("mailto:"):]
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if decoded, err := url.QueryUnescape(addr); err == nil {
			addr = decoded
		}
		add(addr)
	})

	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	for _, match := range emailPattern.FindAllString(body.Text(), -1) {
		add(match)
	}
	return out
}

// SocialLink is a matched social profile.
type SocialLink struct {
	Platform string
	URL      string
}

// ExtractSocialLinks returns the first profile link found per platform.
func ExtractSocialLinks(doc *goquery.Document) []SocialLink {
	found := map[string]bool{}
	var out []SocialLink
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		for _, sp := range socialPatterns {
			if found[sp.platform] {
				continue
			}
			m := sp.pattern.FindStringSubmatch(href)
			if m == nil {
				continue
			}
			if sp.platform == "instagram" && instagramReserved[strings.ToLower(m[1])] {
				continue
			}
			found[sp.platform] = true
			out = append(out, SocialLink{Platform: sp.platform, URL: href})
			return
		}
	})
	return out
}

// Resolve returns ref as an absolute URL against base, without fragment.
func Resolve(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "javascript:") {
		return "", false
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(parsed)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

func normalizeLink(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.Host = strings.ToLower(c.Host)
	if c.Path != "/" {
		c.Path = strings.TrimSuffix(c.Path, "/")
	}
	if c.Path == "" {
		c.Path = "/"
	}
	return c.String()
}

func sameSite(a, b string) bool {
	return strings.TrimPrefix(strings.ToLower(a), "www.") == strings.TrimPrefix(strings.ToLower(b), "www.")
}

// ClassifyHint returns the navigation hint and priority for a page path
// and link text, or ("", 0) when nothing matches.
func ClassifyHint(path, text string) (string, int) {
	tokens := strings.FieldsFunc(strings.ToLower(path+" "+text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '-'
	})
	set := map[string]bool{}
	for _, tok := range tokens {
		set[tok] = true
		for _, part := range strings.Split(tok, "-") {
			set[part] = true
		}
	}
	for _, rule := range navRules {
		for _, kw := range rule.keywords {
			if set[kw] {
				return rule.hint, rule.priority
			}
		}
	}
	return "", 0
}

// ClassifyNavLinks returns deduplicated same-site links that look like
// profile pages, highest priority first.
func ClassifyNavLinks(doc *goquery.Document, base *url.URL) []models.NavLink {
	byURL := map[string]models.NavLink{}
	root := normalizeLink(&url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		abs, ok := Resolve(base, s.AttrOr("href", ""))
		if !ok {
			return
		}
		parsed, err := url.Parse(abs)
		if err != nil || !sameSite(parsed.Host, base.Host) {
			return
		}
		lowerPath := strings.ToLower(parsed.Path)
		for _, ext := range skipExtensions {
			if strings.HasSuffix(lowerPath, ext) {
				return
			}
		}
		key := normalizeLink(parsed)
		if key == root {
			return
		}

		text := Clean(s.Text())
		hint, priority := ClassifyHint(parsed.Path, text)
		if hint == "" {
			return
		}
		if s.Closest("nav, header, [role=navigation], [class*=menu], [class*=nav]").Length() > 0 {
			priority += 5
		}
		if existing, ok := byURL[key]; ok && existing.Priority >= priority {
			return
		}
		byURL[key] = models.NavLink{URL: key, Text: text, Hint: hint, Priority: priority}
	})

	links := make([]models.NavLink, 0, len(byURL))
	for _, link := range byURL {
		links = append(links, link)
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Priority != links[j].Priority {
			return links[i].Priority > links[j].Priority
		}
		return links[i].URL < links[j].URL
	})
	return links
}

// ImageCandidate is an <img> that passed the size filter.
type ImageCandidate struct {
	URL string
	Alt string
}

// bestSource picks the widest srcset candidate, falling back to lazy-load
// attributes and src. width is 0 when unknown.
func bestSource(s *goquery.Selection) (string, int) {
	for _, attr := range []string{"srcset", "data-srcset"} {
		srcset, ok := s.Attr(attr)
		if !ok || strings.TrimSpace(srcset) == "" {
			continue
		}
		best, bestWidth := "", -1
		for _, candidate := range strings.Split(srcset, ",") {
			fields := strings.Fields(candidate)
			if len(fields) == 0 {
				continue
			}
			width := 0
			if len(fields) > 1 {
				if m := srcsetWidth.FindStringSubmatch(fields[1]); m != nil {
					width, _ = strconv.Atoi(m[1])
				}
			}
			if width > bestWidth {
				best, bestWidth = fields[0], width
			}
		}
		if best != "" {
			return best, bestWidth
		}
	}
	for _, attr := range []string{"data-src", "data-image", "data-lazy-src", "src"} {
		if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" && !strings.HasPrefix(v, "data:") {
			return v, 0
		}
	}
	return "", 0
}

// ExtractImages returns images in sel of at least minWidth pixels, when the
// width is declared. Icons and SVGs are dropped.
func ExtractImages(sel *goquery.Selection, base *url.URL, minWidth int) []ImageCandidate {
	seen := map[string]bool{}
	var out []ImageCandidate
	sel.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, width := bestSource(s)
		if width == 0 {
			width, _ = strconv.Atoi(s.AttrOr("width", "0"))
		}
		if width > 0 && width < minWidth {
			return
		}
		abs, ok := Resolve(base, src)
		if !ok || seen[abs] {
			return
		}
		lower := strings.ToLower(abs)
		if strings.HasSuffix(strings.SplitN(lower, "?", 2)[0], ".svg") ||
			strings.Contains(lower, "favicon") || strings.Contains(lower, "/icon") || strings.Contains(lower, "logo") {
			return
		}
		seen[abs] = true
		out = append(out, ImageCandidate{URL: abs, Alt: Clean(s.AttrOr("alt", ""))})
	})
	return out
}

// MetaContent returns the content of the first matching meta tag.
func MetaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v := Clean(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}

// SiteName prefers og:site_name, then the first segment of <title>.
func SiteName(doc *goquery.Document) string {
	if name := MetaContent(doc, `meta[property="og:site_name"]`); name != "" {
		return name
	}
	title := Clean(doc.Find("title").First().Text())
	for _, sep := range []string{" | ", " — ", " – ", " - ", " :: "} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
		}
	}
	return strings.TrimSpace(title)
}

// ExtractLocation reads schema.org locality or an <address> block.
func ExtractLocation(doc *goquery.Document) string {
	if v := Clean(doc.Find(`[itemprop="addressLocality"]`).First().Text()); v != "" {
		region := Clean(doc.Find(`[itemprop="addressRegion"]`).First().Text())
		if region != "" {
			return v + ", " + region
		}
		return v
	}
	if v := Clean(doc.Find("address").First().Text()); v != "" && len(v) < 120 {
		return v
	}
	return ""
}

// BodyText returns the visible text of the document.
func BodyText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, svg").Remove()
	return Clean(body.Text())
}

// ListingCandidate is a product card found on a page.
type ListingCandidate struct {
	Title       string
	Description string
	Medium      string
	PriceText   string
	Dimensions  string
	SoldOut     bool
	Images      []ImageCandidate
}

var mediumKeywords = []string{
	"oil", "acrylic", "watercolor", "watercolour", "gouache", "charcoal", "graphite", "pastel",
	"on canvas", "on paper", "on panel", "on linen", "ink", "stoneware", "porcelain", "ceramic",
	"bronze", "glaze", "mixed media", "giclee", "giclée", "screenprint", "linocut", "etching", "photograph",
}

func looksLikeMedium(text string) bool {
	lower := strings.ToLower(text)
	if len(lower) > 120 {
		return false
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// leafTexts returns the text of elements that have no element children.
func leafTexts(s *goquery.Selection) []string {
	var out []string
	s.Find("p, span, div, li, dd, small, em, strong").Each(func(_ int, el *goquery.Selection) {
		if el.Children().Length() > 0 {
			return
		}
		if text := Clean(el.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

func findCard(price *goquery.Selection) *goquery.Selection {
	card := price.Parent()
	for depth := 0; depth < 6 && card.Length() > 0; depth++ {
		if goquery.NodeName(card) == "body" {
			return nil
		}
		if card.Find("img, h1, h2, h3, h4, h5, [class*=title], [class*=Title]").Length() > 0 {
			return card
		}
		card = card.Parent()
	}
	return nil
}

// ExtractListings finds product cards by their price or sold-out badge and
// reads title, price text, dimensions, medium and images from each.
func ExtractListings(doc *goquery.Document, base *url.URL, minWidth int) []ListingCandidate {
	seenCards := map[*html.Node]bool{}
	seenTitles := map[string]bool{}
	var out []ListingCandidate

	doc.Find(`[class*=price], [class*=Price], [data-price], [class*=sold], [class*=Sold]`).Each(func(_ int, priceEl *goquery.Selection) {
		if priceEl.Closest("nav, header, footer").Length() > 0 {
			return
		}
		card := findCard(priceEl)
		if card == nil || seenCards[card.Nodes[0]] {
			return
		}
		seenCards[card.Nodes[0]] = true

		c := ListingCandidate{}
		c.Title = Clean(card.Find("h1, h2, h3, h4, h5, [class*=title], [class*=Title]").First().Text())
		if c.Title == "" {
			c.Title = Clean(card.Find("img").First().AttrOr("alt", ""))
		}

		priceSel := card.Find(`[class*=price], [class*=Price], [data-price]`).First()
		c.PriceText = Clean(priceSel.Text())
		if c.PriceText == "" {
			c.PriceText = priceSel.AttrOr("data-price", "")
		}

		cardText := strings.ToLower(Clean(card.Text()))
		if card.Find(`[class*=sold], [class*=Sold]`).Length() > 0 || ParsePrice(c.PriceText).IsSoldOut {
			c.SoldOut = true
		} else if strings.Contains(cardText, "sold out") {
			c.SoldOut = true
		}

		for _, text := range leafTexts(card) {
			switch {
			case text == c.Title || text == c.PriceText:
			case c.Dimensions == "" && dimsPattern.MatchString(text):
				c.Dimensions = text
			case c.Medium == "" && looksLikeMedium(text):
				c.Medium = text
			case c.Description == "" && len(text) > 40:
				c.Description = text
			}
		}
		c.Images = ExtractImages(card, base, minWidth)

		if c.Title == "" && c.PriceText == "" {
			return
		}
		key := strings.ToLower(c.Title)
		if c.Title != "" && seenTitles[key] {
			return
		}
		seenTitles[key] = true
		out = append(out, c)
	})
	return out
}

// CvCandidate is one parsed CV line.
type CvCandidate struct {
	Type        models.CvEntryType
	Title       string
	Institution string
	Year        int
}

func sectionType(heading string) (models.CvEntryType, bool) {
	h := strings.ToLower(heading)
	switch {
	case strings.Contains(h, "residenc"):
		return models.CvResidency, true
	case strings.Contains(h, "exhibit"), strings.Contains(h, "shows"), strings.Contains(h, "exhibition"):
		return models.CvExhibition, true
	case strings.Contains(h, "award"), strings.Contains(h, "grant"), strings.Contains(h, "prize"),
		strings.Contains(h, "honor"), strings.Contains(h, "fellowship"):
		return models.CvAward, true
	case strings.Contains(h, "education"), strings.Contains(h, "degree"):
		return models.CvEducation, true
	case strings.Contains(h, "press"), strings.Contains(h, "bibliograph"), strings.Contains(h, "publication"),
		strings.Contains(h, "review"):
		return models.CvPress, true
	}
	return "", false
}

// ParseCvLine splits "2021 Title, Institution, City" into its parts. ok is
// false when the line carries no year.
func ParseCvLine(line string, kind models.CvEntryType) (CvCandidate, bool) {
	line = Clean(line)
	if len(line) < 6 || len(line) > 300 {
		return CvCandidate{}, false
	}
	loc := yearPattern.FindStringIndex(line)
	if loc == nil {
		return CvCandidate{}, false
	}
	year, _ := strconv.Atoi(line[loc[0]:loc[1]])
	rest := line[:loc[0]] + " " + line[loc[1]:]
	rest = Clean(rest)
	// Year ranges like "2019-2021" leave a second year behind.
	rest = Clean(yearPattern.ReplaceAllString(strings.TrimLeft(rest, "-–— "), ""))
	rest = leadingSep.ReplaceAllString(rest, "")
	if rest == "" {
		return CvCandidate{}, false
	}

	entry := CvCandidate{Type: kind, Year: year, Title: rest}
	if parts := strings.SplitN(rest, ",", 3); len(parts) > 1 {
		entry.Title = strings.TrimSpace(parts[0])
		entry.Institution = strings.TrimSpace(parts[1])
	}
	return entry, true
}

// ExtractCvEntries walks the document in order, tracking the current
// section heading, and parses every year-bearing list item or paragraph.
func ExtractCvEntries(doc *goquery.Document, defaultType models.CvEntryType) []CvCandidate {
	doc.Find("p br, li br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: "\n"})
	})

	current := defaultType
	seen := map[string]bool{}
	var out []CvCandidate
	doc.Find("h1, h2, h3, h4, h5, h6, li, p").Each(func(_ int, s *goquery.Selection) {
		if s.Closest("nav, header, footer").Length() > 0 {
			return
		}
		if goquery.NodeName(s)[0] == 'h' {
			if kind, ok := sectionType(s.Text()); ok {
				current = kind
			}
			return
		}
		if s.Find("li, p").Length() > 0 {
			return
		}
		lines := strings.Split(s.Text(), "\n")
		if len(lines) == 1 {
			if kind, ok := sectionType(s.Text()); ok && !yearPattern.MatchString(s.Text()) && len(s.Text()) < 60 {
				current = kind
				return
			}
		}
		for _, line := range lines {
			entry, ok := ParseCvLine(line, current)
			if !ok {
				continue
			}
			key := string(entry.Type) + "|" + strings.ToLower(entry.Title) + "|" + strconv.Itoa(entry.Year)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, entry)
		}
	})
	return out
}

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"painting", []string{"painting", "paintings", "painter", "oil on", "acrylic"}},
	{"sculpture", []string{"sculpture", "sculptor", "bronze"}},
	{"ceramics", []string{"ceramic", "ceramics", "stoneware", "porcelain", "pottery"}},
	{"photography", []string{"photograph", "photography", "photographer"}},
	{"printmaking", []string{"printmaking", "linocut", "etching", "screenprint", "woodcut"}},
	{"drawing", []string{"drawing", "drawings", "charcoal", "graphite"}},
	{"textile", []string{"textile", "weaving", "fiber art", "fibre"}},
	{"jewelry", []string{"jewelry", "jewellery"}},
	{"mixed media", []string{"mixed media", "collage"}},
	{"digital", []string{"digital art", "generative", "3d render"}},
}

// InferCategories returns art categories mentioned in texts, in a stable order.
func InferCategories(texts ...string) []string {
	joined := strings.ToLower(strings.Join(texts, " "))
	var out []string
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(joined, kw) {
				out = append(out, c.category)
				break
			}
		}
	}
	return out
}

// LooksLikeDimensions reports whether text contains an "A x B" measurement.
func LooksLikeDimensions(text string) bool {
	return dimsPattern.MatchString(text)
}

// HTMLText returns the visible text of an HTML fragment, one line per
// block element.
func HTMLText(fragment string) string {
	doc, err := NewDocument(fragment)
	if err != nil {
		return ""
	}
	doc.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: "\n"})
	})
	var lines []string
	doc.Find("p, li, h1, h2, h3, h4, div").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li, h1, h2, h3, h4, div").Length() > 0 {
			return
		}
		for _, line := range strings.Split(s.Text(), "\n") {
			if line = Clean(line); line != "" {
				lines = append(lines, line)
			}
		}
	})
	if len(lines) == 0 {
		return BodyText(doc)
	}
	return strings.Join(lines, "\n")
}
