package fetch

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/temoto/robotstxt"
)

// RobotsRules are the wildcard user-agent rules of one site. A nil value,
// or one without a group, allows everything.
type RobotsRules struct {
	group *robotstxt.Group
}

// ParseRobots parses a robots.txt body and keeps the "User-agent: *" group.
func ParseRobots(body []byte) *RobotsRules {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return &RobotsRules{}
	}
	return &RobotsRules{group: data.FindGroup("*")}
}

// Allowed reports whether rawURL may be visited.
func (r *RobotsRules) Allowed(rawURL string) bool {
	if r == nil || r.group == nil {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return r.group.Test(path)
}

type robotsCache struct {
	entries *lru.Cache[string, *RobotsRules]
}

func newRobotsCache(size int) (*robotsCache, error) {
	entries, err := lru.New[string, *RobotsRules](size)
	if err != nil {
		return nil, err
	}
	return &robotsCache{entries: entries}, nil
}

func originOf(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme + "://" + parsed.Host), true
}

// Robots returns the cached robots rules for rawURL's origin, fetching
// robots.txt on first use. A missing or failing robots.txt allows all.
func (f *Fetcher) Robots(ctx context.Context, rawURL string) *RobotsRules {
	origin, ok := originOf(rawURL)
	if !ok {
		return nil
	}
	if rules, ok := f.robots.entries.Get(origin); ok {
		return rules
	}

	rules := &RobotsRules{}
	resp := f.Get(ctx, origin+"/robots.txt", Options{})
	if resp.OK {
		rules = ParseRobots(resp.Body)
	} else {
		f.logger.Debug("robots.txt unavailable, allowing all",
			slog.String("origin", origin),
			slog.Int("status", resp.Status),
		)
	}
	f.robots.entries.Add(origin, rules)
	return rules
}

// Allowed consults robots.txt for rawURL. Callers skip disallowed
// secondary pages silently; the root URL is always attempted.
func (f *Fetcher) Allowed(ctx context.Context, rawURL string) bool {
	if f.Robots(ctx, rawURL).Allowed(rawURL) {
		return true
	}
	f.Metrics.IncRobotsSkip()
	f.logger.Debug("skipping page disallowed by robots.txt", slog.String("url", rawURL))
	return false
}
