package orchestrator

import (
	"testing"

	"github.com/aluiziolira/go-scrape-artists/config"
	"github.com/aluiziolira/go-scrape-artists/models"
)

func record(listings, cv int, bio bool, pages int) *models.ScrapedArtistData {
	d := models.NewScrapedArtistData("https://example.test/", models.PlatformGeneric)
	for i := 0; i < listings; i++ {
		d.Listings = append(d.Listings, models.ScrapedListing{})
	}
	for i := 0; i < cv; i++ {
		d.CvEntries = append(d.CvEntries, models.ScrapedCvEntry{Type: models.CvOther})
	}
	if bio {
		d.Bio = models.TextField("A bio long enough to count.", models.ConfidenceMedium, "")
	}
	for i := 0; i < pages; i++ {
		d.PagesVisited = append(d.PagesVisited, "https://example.test/")
	}
	return d
}

func TestSufficient(t *testing.T) {
	rule := config.DefaultConfig().Sufficiency

	tests := []struct {
		name string
		data *models.ScrapedArtistData
		rule SufficiencyRule
		want bool
	}{
		{"empty", record(0, 0, false, 1), rule, false},
		{"bio only", record(0, 0, true, 1), rule, true},
		{"listings only", record(2, 0, false, 1), rule, true},
		{"cv only", record(0, 3, false, 1), rule, true},
		{"bio ignored", record(0, 0, true, 1), SufficiencyRule{MinListings: 1}, false},
		{"listing threshold", record(2, 0, false, 1), SufficiencyRule{MinListings: 3}, false},
		{"nil record", nil, rule, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sufficient(tt.data, tt.rule); got != tt.want {
				t.Fatalf("Sufficient()=%v, want %v", got, tt.want)
			}
		})
	}
}

func TestPickBetter(t *testing.T) {
	tests := []struct {
		name  string
		a, b  *models.ScrapedArtistData
		wantB bool
	}{
		{"empty base loses to any signal", record(0, 0, false, 1), record(0, 0, true, 1), true},
		{"empty candidate loses", record(0, 0, true, 1), record(0, 0, false, 4), false},
		{"more signals win", record(5, 0, false, 1), record(1, 1, false, 1), true},
		{"equal signals, more items win", record(1, 0, true, 1), record(3, 0, true, 1), true},
		{"equal signals and items, more pages win", record(1, 0, false, 1), record(1, 0, false, 3), true},
		{"full tie keeps base", record(1, 1, true, 2), record(1, 1, true, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickBetter(tt.a, tt.b)
			if (got == tt.b) != tt.wantB {
				t.Fatalf("PickBetter picked b=%v, want %v", got == tt.b, tt.wantB)
			}
		})
	}

	b := record(0, 0, false, 0)
	if PickBetter(nil, b) != b {
		t.Fatalf("nil base should yield candidate")
	}
}
