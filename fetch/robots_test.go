package fetch

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
)

func TestParseRobotsWildcardGroup(t *testing.T) {
	rules := ParseRobots([]byte("User-agent: Googlebot\nDisallow: /\n\nUser-agent: *\nDisallow: /private/\nDisallow: /cart\n"))

	tests := []struct {
		url     string
		allowed bool
	}{
		{url: "https://example.test/", allowed: true},
		{url: "https://example.test/about", allowed: true},
		{url: "https://example.test/private/notes", allowed: false},
		{url: "https://example.test/cart?step=1", allowed: false},
	}
	for _, tt := range tests {
		if got := rules.Allowed(tt.url); got != tt.allowed {
			t.Fatalf("Allowed(%q) = %v, want %v", tt.url, got, tt.allowed)
		}
	}
}

func TestNilRobotsAllowEverything(t *testing.T) {
	var rules *RobotsRules
	if !rules.Allowed("https://example.test/anything") {
		t.Fatalf("nil rules should allow")
	}
}

func TestFetcherRobotsCachedPerOrigin(t *testing.T) {
	f, transport := newTestFetcher(t)
	transport.RegisterResponder("GET", "https://example.test/robots.txt",
		httpmock.NewStringResponder(http.StatusOK, "User-agent: *\nDisallow: /drafts/\n"))

	ctx := context.Background()
	if f.Allowed(ctx, "https://example.test/drafts/one") {
		t.Fatalf("drafts should be disallowed")
	}
	if !f.Allowed(ctx, "https://example.test/cv") {
		t.Fatalf("cv should be allowed")
	}
	info := transport.GetCallCountInfo()
	if got := info["GET https://example.test/robots.txt"]; got != 1 {
		t.Fatalf("robots fetched %d times, want 1", got)
	}
}

func TestFetcherMissingRobotsAllows(t *testing.T) {
	f, transport := newTestFetcher(t)
	transport.RegisterResponder("GET", "https://example.test/robots.txt", httpmock.NewStringResponder(http.StatusNotFound, ""))

	if !f.Allowed(context.Background(), "https://example.test/shop") {
		t.Fatalf("missing robots.txt should allow")
	}
}
