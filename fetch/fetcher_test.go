package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-artists/config"
	"github.com/jarcoal/httpmock"
)

func newTestFetcher(t *testing.T) (*Fetcher, *httpmock.MockTransport) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.MinInterval = 0
	cfg.MaxRetries = 2
	cfg.RetryBackoff = time.Millisecond
	cfg.RetryBackoffMax = 2 * time.Millisecond

	f, err := New(cfg)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	transport := httpmock.NewMockTransport()
	f.WithTransport(transport)
	return f, transport
}

func TestGetSuccessFollowsRedirect(t *testing.T) {
	f, transport := newTestFetcher(t)

	redirect := httpmock.NewStringResponse(http.StatusFound, "")
	redirect.Header.Set("Location", "https://example.test/home")
	transport.RegisterResponder("GET", "https://example.test/", httpmock.ResponderFromResponse(redirect))

	page := httpmock.NewStringResponse(http.StatusOK, "<html><body>hi</body></html>")
	page.Header.Set("Server", "nginx")
	transport.RegisterResponder("GET", "https://example.test/home", httpmock.ResponderFromResponse(page))

	resp := f.Get(context.Background(), "https://example.test/", Options{})
	if !resp.OK || resp.Status != http.StatusOK {
		t.Fatalf("expected ok 200, got ok=%v status=%d err=%v", resp.OK, resp.Status, resp.Err)
	}
	if resp.FinalURL != "https://example.test/home" {
		t.Fatalf("final url = %q", resp.FinalURL)
	}
	if resp.Header.Get("Server") != "nginx" {
		t.Fatalf("server header = %q", resp.Header.Get("Server"))
	}
	if string(resp.Body) != "<html><body>hi</body></html>" {
		t.Fatalf("unexpected body %q", resp.Body)
	}
}

func TestGetRetriesConnectionFailures(t *testing.T) {
	f, transport := newTestFetcher(t)
	transport.RegisterResponder("GET", "https://example.test/flaky", httpmock.NewErrorResponder(errors.New("connection reset by peer")))

	resp := f.Get(context.Background(), "https://example.test/flaky", Options{})
	if resp.OK || resp.Status != 0 {
		t.Fatalf("expected synthetic failure, got ok=%v status=%d", resp.OK, resp.Status)
	}
	if got := transport.GetTotalCallCount(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
	if resp.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", resp.Attempts)
	}
	if label := ErrorTypeLabel(resp.Err); label != "connection" {
		t.Fatalf("error label = %q, want connection", label)
	}
}

func TestGetDoesNotRetryTimeout(t *testing.T) {
	f, transport := newTestFetcher(t)
	transport.RegisterResponder("GET", "https://example.test/slow", httpmock.NewErrorResponder(context.DeadlineExceeded))

	resp := f.Get(context.Background(), "https://example.test/slow", Options{Timeout: time.Second})
	if resp.OK || resp.Status != 0 {
		t.Fatalf("expected synthetic failure, got ok=%v status=%d", resp.OK, resp.Status)
	}
	if got := transport.GetTotalCallCount(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
	if !IsTimeout(resp.Err) {
		t.Fatalf("expected timeout error, got %v", resp.Err)
	}
}

func TestGetHTTPStatusNotRetried(t *testing.T) {
	f, transport := newTestFetcher(t)
	transport.RegisterResponder("GET", "https://example.test/missing", httpmock.NewStringResponder(http.StatusNotFound, "nope"))

	resp := f.Get(context.Background(), "https://example.test/missing", Options{})
	if resp.OK || resp.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got ok=%v status=%d", resp.OK, resp.Status)
	}
	if got := transport.GetTotalCallCount(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
	if label := ErrorTypeLabel(resp.Err); label != "not_found" {
		t.Fatalf("error label = %q", label)
	}
}

func TestGetAcceptJSONHeader(t *testing.T) {
	f, transport := newTestFetcher(t)
	var accept string
	transport.RegisterResponder("GET", "https://example.test/data", func(req *http.Request) (*http.Response, error) {
		accept = req.Header.Get("Accept")
		return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
	})

	f.Get(context.Background(), "https://example.test/data", Options{AcceptJSON: true})
	if accept != acceptJSON {
		t.Fatalf("accept = %q", accept)
	}
}

func TestHostLimiterSpacesSameHost(t *testing.T) {
	limiter := newHostLimiter(40 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, "example.test"); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 75*time.Millisecond {
		t.Fatalf("three requests took %v, want at least two intervals", elapsed)
	}

	other := time.Now()
	if err := limiter.Wait(ctx, "other.test"); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if elapsed := time.Since(other); elapsed > 20*time.Millisecond {
		t.Fatalf("first request to a new host waited %v", elapsed)
	}
}

func TestBackoffCapped(t *testing.T) {
	f, _ := newTestFetcher(t)
	f.cfg.RetryBackoff = 200 * time.Millisecond
	f.cfg.RetryBackoffMax = 500 * time.Millisecond

	if delay := f.backoff(1); delay != 200*time.Millisecond {
		t.Fatalf("first delay = %v", delay)
	}
	if delay := f.backoff(4); delay > f.cfg.RetryBackoffMax {
		t.Fatalf("delay %v exceeds max %v", delay, f.cfg.RetryBackoffMax)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, expected: "timeout"},
		{name: "context canceled", err: context.Canceled, expected: "timeout"},
		{name: "connection", err: errors.New("connection refused"), expected: "connection"},
		{name: "forbidden", statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "server error", statusCode: http.StatusBadGateway, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorTypeLabel(classifyError(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}
