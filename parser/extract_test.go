package parser

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"github.com/aluiziolira/go-scrape-artists/models"
)

func mustDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := NewDocument(body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u
}

func TestClassifyNavLinks(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<nav>
			<a href="/about">About</a>
			<a href="/shop">Shop</a>
			<a href="/cv">CV</a>
		</nav>
		<a href="https://instagram.com/abbey">Instagram</a>
		<a href="/about/">About again</a>
		<a href="/blog">Blog</a>
		<a href="/">Home</a>
		<a href="/files/cv.pdf">CV (pdf)</a>
	</body></html>`)

	got := ClassifyNavLinks(doc, mustURL(t, "https://example.com/"))
	want := []models.NavLink{
		{URL: "https://example.com/about", Text: "About", Hint: "about", Priority: 95},
		{URL: "https://example.com/cv", Text: "CV", Hint: "cv", Priority: 90},
		{URL: "https://example.com/shop", Text: "Shop", Hint: "shop", Priority: 80},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("nav links mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyHint(t *testing.T) {
	tests := []struct {
		path string
		text string
		hint string
	}{
		{path: "/artist-statement", hint: "statement"},
		{path: "/pages/biography", hint: "about"},
		{path: "/exhibitions", hint: "cv"},
		{path: "/collections/all", text: "Shop", hint: "shop"},
		{path: "/portfolio", hint: "works"},
		{path: "/in-the-studio", hint: "process"},
		{path: "/blog", text: "Journal", hint: ""},
	}
	for _, tt := range tests {
		if hint, _ := ClassifyHint(tt.path, tt.text); hint != tt.hint {
			t.Fatalf("ClassifyHint(%q, %q) = %q, want %q", tt.path, tt.text, hint, tt.hint)
		}
	}
}

func TestExtractEmails(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<a href="mailto:Studio@Abbey.com?subject=hi">Email</a>
		<p>Or write hello@abbey.com.</p>
		<p>Again: studio@abbey.com</p>
		<script>var x = "tracker@sentry.io";</script>
	</body></html>`)

	got := ExtractEmails(doc)
	want := []string{"studio@abbey.com", "hello@abbey.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("emails mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSocialLinks(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<a href="https://instagram.com/p/xyz">A post</a>
		<a href="https://www.instagram.com/abbeypeters/">IG</a>
		<a href="https://facebook.com/abbey">FB</a>
		<a href="https://x.com/abbey">X</a>
		<a href="https://facebook.com/someone-else">FB 2</a>
	</body></html>`)

	got := ExtractSocialLinks(doc)
	want := []SocialLink{
		{Platform: "instagram", URL: "https://www.instagram.com/abbeypeters/"},
		{Platform: "facebook", URL: "https://facebook.com/abbey"},
		{Platform: "twitter", URL: "https://x.com/abbey"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("social links mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractImages(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<img srcset="a-300.jpg 300w, a-1200.jpg 1200w" src="a.jpg" alt=" Studio  view ">
		<img src="/icons/favicon.png">
		<img src="small.jpg" width="100">
		<img data-src="/lazy.jpg">
		<img src="data:image/png;base64,xx">
		<img src="/img/mark.svg">
		<img src="a.jpg?v=1" srcset="a-1200.jpg 1200w">
	</body></html>`)

	got := ExtractImages(doc.Selection, mustURL(t, "https://example.com/works/"), 300)
	want := []ImageCandidate{
		{URL: "https://example.com/works/a-1200.jpg", Alt: "Studio view"},
		{URL: "https://example.com/lazy.jpg"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractListings(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<header><span class="cart-price">$0.00</span></header>
		<div class="grid">
			<div class="product-card">
				<img src="/img/one.jpg" alt="Blue Vase">
				<h3 class="product-title">Blue Vase</h3>
				<div class="product-price">$115.00</div>
				<p>Stoneware with celadon glaze</p>
				<p>8 x 5 in</p>
			</div>
			<div class="product-card">
				<img src="/img/two.jpg">
				<h3 class="product-title">Red Bowl</h3>
				<div class="product-price sold-out">Sold</div>
			</div>
		</div>
	</body></html>`)

	got := ExtractListings(doc, mustURL(t, "https://abbey-peters.com/shop"), 300)
	want := []ListingCandidate{
		{
			Title:      "Blue Vase",
			Medium:     "Stoneware with celadon glaze",
			PriceText:  "$115.00",
			Dimensions: "8 x 5 in",
			Images:     []ImageCandidate{{URL: "https://abbey-peters.com/img/one.jpg", Alt: "Blue Vase"}},
		},
		{
			Title:     "Red Bowl",
			PriceText: "Sold",
			SoldOut:   true,
			Images:    []ImageCandidate{{URL: "https://abbey-peters.com/img/two.jpg"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("listings mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractCvEntries(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<h2>Solo Exhibitions</h2>
		<ul>
			<li>2023 Quiet Forms, Harbor Gallery, Portland</li>
			<li>2021 Early Work, Main St Studio</li>
		</ul>
		<h2>Education</h2>
		<p>2015 BFA Ceramics, Alfred University<br>2013 Summer Intensive, Penland School</p>
		<h2>Awards</h2>
		<ul><li>Artist grant 2020</li></ul>
		<footer><p>© 2024 Abbey Peters</p></footer>
	</body></html>`)

	got := ExtractCvEntries(doc, models.CvOther)
	want := []CvCandidate{
		{Type: models.CvExhibition, Title: "Quiet Forms", Institution: "Harbor Gallery", Year: 2023},
		{Type: models.CvExhibition, Title: "Early Work", Institution: "Main St Studio", Year: 2021},
		{Type: models.CvEducation, Title: "BFA Ceramics", Institution: "Alfred University", Year: 2015},
		{Type: models.CvEducation, Title: "Summer Intensive", Institution: "Penland School", Year: 2013},
		{Type: models.CvAward, Title: "Artist grant", Year: 2020},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cv mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCvLineRejectsYearless(t *testing.T) {
	if _, ok := ParseCvLine("Represented by Harbor Gallery", models.CvOther); ok {
		t.Fatalf("expected yearless line to be rejected")
	}
	entry, ok := ParseCvLine("2019-2021 Artist in Residence, Clay Center", models.CvResidency)
	if !ok || entry.Year != 2019 || entry.Title != "Artist in Residence" || entry.Institution != "Clay Center" {
		t.Fatalf("unexpected entry %+v (ok=%v)", entry, ok)
	}
}

func TestPageMetadata(t *testing.T) {
	doc := mustDoc(t, `<html><head>
		<title>Abbey Peters | Home</title>
		<meta property="og:image" content="https://cdn.example.com/cover.jpg">
	</head><body>
		<nav><p>Home About Shop and a long navigation paragraph that should be ignored entirely</p></nav>
		<p>Short.</p>
		<p>Abbey Peters is a ceramic artist working in stoneware and porcelain from a studio in Portland.</p>
		<span itemprop="addressLocality">Portland</span><span itemprop="addressRegion">OR</span>
	</body></html>`)

	if got := SiteName(doc); got != "Abbey Peters" {
		t.Fatalf("site name = %q", got)
	}
	if got := MetaContent(doc, `meta[property="og:image"]`); got != "https://cdn.example.com/cover.jpg" {
		t.Fatalf("og image = %q", got)
	}
	if got := ExtractLocation(doc); got != "Portland, OR" {
		t.Fatalf("location = %q", got)
	}
	bio := LongestParagraph(doc, 40)
	if bio != "Abbey Peters is a ceramic artist working in stoneware and porcelain from a studio in Portland." {
		t.Fatalf("bio = %q", bio)
	}
	if got := LongestParagraph(doc, 500); got != "" {
		t.Fatalf("expected empty bio under a high minimum, got %q", got)
	}
}

func TestInferCategories(t *testing.T) {
	got := InferCategories("Stoneware vessels", "and oil paintings")
	if !reflect.DeepEqual(got, []string{"painting", "ceramics"}) {
		t.Fatalf("categories = %v", got)
	}
	if got := InferCategories("nothing relevant"); got != nil {
		t.Fatalf("expected nil categories, got %v", got)
	}
}
