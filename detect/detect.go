// Package detect classifies a fetched page into a hosting platform.
package detect

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/aluiziolira/go-scrape-artists/models"
)

var (
	squarespaceSiteID = regexp.MustCompile(`"websiteId"\s*:\s*"([0-9a-f]{16,32})"`)
	generatorMeta     = regexp.MustCompile(`(?i)<meta[^>]+name=["']generator["'][^>]+content=["']([^"']+)["']`)
)

type check struct {
	platform models.Platform
	match    func(h http.Header, body, host string) (map[string]string, bool)
}

// checks are ordered by fingerprint specificity; the first match wins.
var checks = []check{
	{platform: models.PlatformSquarespace, match: matchSquarespace},
	{platform: models.PlatformWix, match: matchWix},
	{platform: models.PlatformWordPress, match: matchWordPress},
	{platform: models.PlatformShopify, match: matchShopify},
}

// Detect maps (headers, html, url) to exactly one platform. Unknown sites
// are PlatformGeneric.
func Detect(headers http.Header, html, pageURL string) models.DetectedPlatform {
	host := ""
	if parsed, err := url.Parse(pageURL); err == nil {
		host = strings.ToLower(parsed.Hostname())
	}
	if headers == nil {
		headers = http.Header{}
	}
	for _, c := range checks {
		if hints, ok := c.match(headers, html, host); ok {
			return models.DetectedPlatform{Platform: c.platform, Hints: hints}
		}
	}
	return models.DetectedPlatform{Platform: models.PlatformGeneric, Hints: map[string]string{}}
}

func headerContains(h http.Header, key, needle string) bool {
	for _, v := range h.Values(key) {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func generator(body string) string {
	if m := generatorMeta.FindStringSubmatch(body); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

func matchSquarespace(h http.Header, body, host string) (map[string]string, bool) {
	hints := map[string]string{}
	if m := squarespaceSiteID.FindStringSubmatch(body); m != nil {
		hints["siteId"] = m[1]
	}

	matched := headerContains(h, "Server", "squarespace") ||
		headerContains(h, "X-ServedBy", "squarespace") ||
		strings.Contains(body, "static1.squarespace.com") ||
		strings.Contains(body, "Static.SQUARESPACE_CONTEXT") ||
		strings.Contains(generator(body), "squarespace") ||
		strings.HasSuffix(host, ".squarespace.com")
	return hints, matched
}

func matchWix(h http.Header, body, host string) (map[string]string, bool) {
	hints := map[string]string{}
	if strings.HasSuffix(host, ".wixsite.com") {
		hints["subdomain"] = strings.TrimSuffix(host, ".wixsite.com")
		return hints, true
	}
	matched := h.Get("X-Wix-Request-Id") != "" ||
		strings.Contains(body, "static.wixstatic.com") ||
		strings.Contains(generator(body), "wix.com")
	return hints, matched
}

func matchWordPress(h http.Header, body, _ string) (map[string]string, bool) {
	hints := map[string]string{}
	matched := headerContains(h, "Link", "wp-json") ||
		headerContains(h, "X-Powered-By", "wordpress") ||
		strings.Contains(body, "/wp-content/") ||
		strings.Contains(body, "/wp-includes/") ||
		strings.Contains(generator(body), "wordpress")
	if matched && strings.Contains(body, "woocommerce") {
		hints["commerce"] = "woocommerce"
	}
	return hints, matched
}

func matchShopify(h http.Header, body, host string) (map[string]string, bool) {
	hints := map[string]string{}
	if strings.HasSuffix(host, ".myshopify.com") {
		hints["store"] = strings.TrimSuffix(host, ".myshopify.com")
		return hints, true
	}
	matched := h.Get("X-Shopid") != "" ||
		strings.Contains(body, "cdn.shopify.com") ||
		strings.Contains(body, "Shopify.theme")
	return hints, matched
}
