package enrich

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-scrape-artists/models"
)

func TestClientEnrichPostsPagesAndDecodes(t *testing.T) {
	client := NewClient("https://enrich.test/v1/artist", "secret", time.Second)
	transport := httpmock.NewMockTransport()
	client.WithTransport(transport)

	var got Request
	transport.RegisterResponder("POST", "https://enrich.test/v1/artist", func(req *http.Request) (*http.Response, error) {
		if auth := req.Header.Get("Authorization"); auth != "Bearer secret" {
			return httpmock.NewStringResponse(http.StatusUnauthorized, ""), nil
		}
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
			"bio":        "A ceramic artist.",
			"categories": []string{"Ceramics"},
		})
	})

	long := strings.Repeat("a", maxPageText+10)
	imp, err := client.Enrich(context.Background(), Request{
		WebsiteURL: "https://abbey-peters.com/",
		ArtistName: "Abbey Peters",
		Pages:      []PageText{{URL: "https://abbey-peters.com/about", Text: long}},
	})
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if imp.Bio != "A ceramic artist." || len(imp.Categories) != 1 {
		t.Fatalf("unexpected improvements %+v", imp)
	}
	if got.ArtistName != "Abbey Peters" || len(got.Pages) != 1 || len(got.Pages[0].Text) != maxPageText {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestClientEnrichStatusError(t *testing.T) {
	client := NewClient("https://enrich.test/v1/artist", "", time.Second)
	transport := httpmock.NewMockTransport()
	client.WithTransport(transport)
	transport.RegisterResponder("POST", "https://enrich.test/v1/artist", httpmock.NewStringResponder(http.StatusBadGateway, "upstream"))

	if _, err := client.Enrich(context.Background(), Request{}); err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestApplyFillsOnlyEmptyFields(t *testing.T) {
	data := models.NewScrapedArtistData("https://abbey-peters.com/", models.PlatformGeneric)
	data.Bio = models.TextField("Existing bio", models.ConfidenceMedium, "https://abbey-peters.com/about")

	filled := Apply(data, &Improvements{
		Bio:             "Replacement bio",
		ArtistStatement: "I make pots.",
		Location:        "  ",
		CvEntries: []CvEntry{
			{Type: "Exhibition", Title: "Quiet Forms", Institution: "Harbor Gallery", Year: 2023},
			{Type: "mystery", Title: "Untyped", Year: 0},
			{Type: "award"},
		},
		Categories: []string{" Ceramics "},
	}, "https://abbey-peters.com/about")

	want := []string{"artistStatement", "cvEntries", "suggestedCategories"}
	if strings.Join(filled, ",") != strings.Join(want, ",") {
		t.Fatalf("filled = %v, want %v", filled, want)
	}
	if data.Bio.Value != "Existing bio" {
		t.Fatalf("bio should be untouched, got %q", data.Bio.Value)
	}
	if data.ArtistStatement.Confidence != models.ConfidenceLow {
		t.Fatalf("statement confidence = %q", data.ArtistStatement.Confidence)
	}
	if data.Location != nil {
		t.Fatalf("blank location should stay nil")
	}
	if len(data.CvEntries) != 2 || data.CvEntries[0].Type != models.CvExhibition || data.CvEntries[1].Type != models.CvOther {
		t.Fatalf("unexpected cv entries %+v", data.CvEntries)
	}
	if data.CvEntries[1].Year != nil {
		t.Fatalf("zero year should be nil")
	}
	if data.SuggestedCategories.Value[0] != "ceramics" {
		t.Fatalf("categories = %v", data.SuggestedCategories.Value)
	}
}
