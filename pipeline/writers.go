package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/aluiziolira/go-scrape-artists/models"
)

// Output file names inside the artist directory.
const (
	DataFile       = "scraped-data.json"
	SummaryFile    = "summary.md"
	ScreenshotsDir = "screenshots"
)

const summaryTextLimit = 280

var cvOrder = []struct {
	Type  models.CvEntryType
	Title string
}{
	{models.CvExhibition, "Exhibitions"},
	{models.CvAward, "Awards"},
	{models.CvEducation, "Education"},
	{models.CvResidency, "Residencies"},
	{models.CvPress, "Press"},
	{models.CvOther, "Other"},
}

// WriteJSON serializes the full record, indented, to filename.
func WriteJSON(filename string, data *models.ScrapedArtistData) error {
	if err := ensureDir(filename); err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	encoder := json.NewEncoder(buffer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		f.Close()
		return fmt.Errorf("encode json record: %w", err)
	}
	if err := buffer.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush json writer: %w", err)
	}
	return f.Close()
}

// WriteSummary renders the reviewer report for data. images may be nil
// when downloads were skipped.
func WriteSummary(filename string, data *models.ScrapedArtistData, images *models.ImageCounts) error {
	if err := ensureDir(filename); err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(RenderSummary(data, images)), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// RenderSummary returns summary.md as a string.
func RenderSummary(data *models.ScrapedArtistData, images *models.ImageCounts) string {
	var b strings.Builder

	title := data.WebsiteURL
	if data.Name != nil {
		title = data.Name.Value
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- Website: %s\n", data.WebsiteURL)
	fmt.Fprintf(&b, "- Platform: %s\n", data.Platform)
	fmt.Fprintf(&b, "- Scraped at: %s\n", data.ScrapedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- Pages visited: %d\n\n", len(data.PagesVisited))

	b.WriteString("## Profile\n\n")
	profile := newMarkdownTable("Field", "Value", "Confidence")
	textRow(profile, "Name", data.Name)
	textRow(profile, "Bio", data.Bio)
	textRow(profile, "Statement", data.ArtistStatement)
	textRow(profile, "Location", data.Location)
	textRow(profile, "Email", data.Email)
	if data.InstagramURL != "" {
		profile.AppendRow(table.Row{"Instagram", data.InstagramURL, ""})
	} else {
		profile.AppendRow(table.Row{"Instagram", "", badge(nil)})
	}
	for _, link := range data.OtherSocialLinks {
		profile.AppendRow(table.Row{capitalize(link.Platform), link.URL, ""})
	}
	if data.SuggestedCategories != nil {
		profile.AppendRow(table.Row{
			"Categories",
			strings.Join(data.SuggestedCategories.Value, ", "),
			badgeFor(data.SuggestedCategories.Confidence),
		})
	} else {
		profile.AppendRow(table.Row{"Categories", "", badge(nil)})
	}
	b.WriteString(profile.RenderMarkdown())
	b.WriteString("\n\n")

	writeCv(&b, data.CvEntries)
	writeListings(&b, data.Listings)
	writeImages(&b, data, images)
	writeProblems(&b, data)

	return b.String()
}

func writeCv(b *strings.Builder, entries []models.ScrapedCvEntry) {
	fmt.Fprintf(b, "## CV (%d)\n\n", len(entries))
	if len(entries) == 0 {
		b.WriteString("No CV entries found.\n\n")
		return
	}
	for _, group := range cvOrder {
		var lines []string
		for _, e := range entries {
			if e.Type != group.Type || e.Title == nil {
				continue
			}
			line := "- "
			if e.Year != nil {
				line += strconv.Itoa(e.Year.Value) + " · "
			}
			line += e.Title.Value
			if e.Institution != nil {
				line += ", " + e.Institution.Value
			}
			line += " " + badgeFor(e.Title.Confidence)
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n\n%s\n\n", group.Title, strings.Join(lines, "\n"))
	}
}

func writeListings(b *strings.Builder, listings []models.ScrapedListing) {
	fmt.Fprintf(b, "## Listings (%d)\n\n", len(listings))
	if len(listings) == 0 {
		b.WriteString("No listings found.\n\n")
		return
	}
	var available, sold []models.ScrapedListing
	for _, l := range listings {
		if l.IsSoldOut {
			sold = append(sold, l)
		} else {
			available = append(available, l)
		}
	}
	for _, group := range []struct {
		title    string
		listings []models.ScrapedListing
	}{
		{"Available", available},
		{"Sold", sold},
	} {
		fmt.Fprintf(b, "### %s (%d)\n\n", group.title, len(group.listings))
		if len(group.listings) == 0 {
			b.WriteString("None.\n\n")
			continue
		}
		t := newMarkdownTable("Title", "Price", "Dimensions", "Medium", "Images", "Confidence")
		for _, l := range group.listings {
			t.AppendRow(table.Row{
				fieldText(l.Title),
				formatPrice(l.Price),
				formatDimensions(l.Dimensions),
				fieldText(l.Medium),
				len(l.Images),
				listingBadge(l),
			})
		}
		b.WriteString(t.RenderMarkdown())
		b.WriteString("\n\n")
	}
}

func writeImages(b *strings.Builder, data *models.ScrapedArtistData, images *models.ImageCounts) {
	listingImages := 0
	for _, l := range data.Listings {
		listingImages += len(l.Images)
	}
	b.WriteString("## Images\n\n")
	t := newMarkdownTable("Bucket", "Found")
	t.AppendRow(table.Row{"Profile", len(data.ProfileImages)})
	t.AppendRow(table.Row{"Cover", len(data.CoverImages)})
	t.AppendRow(table.Row{"Process", len(data.ProcessImages)})
	t.AppendRow(table.Row{"Listings", listingImages})
	b.WriteString(t.RenderMarkdown())
	b.WriteString("\n\n")
	if images == nil {
		b.WriteString("Image download skipped.\n\n")
		return
	}
	fmt.Fprintf(b, "Downloaded %d, skipped %d, failed %d.\n\n", images.Downloaded, images.Skipped, images.Failed)
}

func writeProblems(b *strings.Builder, data *models.ScrapedArtistData) {
	b.WriteString("## Warnings and errors\n\n")
	if len(data.Errors) == 0 && len(data.Warnings) == 0 {
		b.WriteString("None.\n")
		return
	}
	if len(data.Errors) > 0 {
		fmt.Fprintf(b, "### Errors (%d)\n\n", len(data.Errors))
		for _, e := range data.Errors {
			fmt.Fprintf(b, "- `%s`: %s\n", e.URL, e.Error)
		}
		b.WriteString("\n")
	}
	if len(data.Warnings) > 0 {
		fmt.Fprintf(b, "### Warnings (%d)\n\n", len(data.Warnings))
		for _, w := range data.Warnings {
			fmt.Fprintf(b, "- %s\n", w)
		}
		b.WriteString("\n")
	}
}

func newMarkdownTable(headers ...any) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row(headers))
	return t
}

func textRow(t table.Writer, label string, field *models.ExtractedField[string]) {
	t.AppendRow(table.Row{label, truncate(fieldText(field)), badge(field)})
}

func fieldText(field *models.ExtractedField[string]) string {
	if field == nil {
		return ""
	}
	return strings.Join(strings.Fields(field.Value), " ")
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= summaryTextLimit {
		return s
	}
	return strings.TrimSpace(string(runes[:summaryTextLimit])) + "…"
}

func badge(field *models.ExtractedField[string]) string {
	if field == nil {
		return "⚪ not found"
	}
	return badgeFor(field.Confidence)
}

func badgeFor(c models.Confidence) string {
	switch c {
	case models.ConfidenceHigh:
		return "🟢 high"
	case models.ConfidenceMedium:
		return "🟡 medium"
	case models.ConfidenceLow:
		return "🔴 low"
	}
	return "⚪ " + string(c)
}

// listingBadge reports the weakest confidence among a listing's fields.
func listingBadge(l models.ScrapedListing) string {
	lowest := models.ConfidenceHigh
	seen := false
	note := func(c models.Confidence) {
		seen = true
		if c.Rank() < lowest.Rank() {
			lowest = c
		}
	}
	if l.Title != nil {
		note(l.Title.Confidence)
	}
	if l.Price != nil {
		note(l.Price.Confidence)
	}
	if l.Dimensions != nil {
		note(l.Dimensions.Confidence)
	}
	if l.Medium != nil {
		note(l.Medium.Confidence)
	}
	if !seen {
		return "⚪ not found"
	}
	return badgeFor(lowest)
}

func formatPrice(price *models.ExtractedField[int64]) string {
	if price == nil {
		return ""
	}
	return fmt.Sprintf("$%d.%02d", price.Value/100, price.Value%100)
}

func formatDimensions(dims *models.ExtractedField[models.ParsedDimensions]) string {
	if dims == nil {
		return ""
	}
	var axes []string
	for _, v := range []*float64{dims.Value.Length, dims.Value.Width, dims.Value.Height} {
		if v != nil {
			axes = append(axes, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	return strings.Join(axes, " × ") + " " + string(dims.Value.Unit)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
