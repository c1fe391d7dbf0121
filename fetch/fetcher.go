// Package fetch is the rate-limited, retrying HTTP layer shared by every
// component that talks to the target site.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-artists/config"
	"github.com/go-resty/resty/v2"
)

const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptJSON = "application/json, text/javascript;q=0.9, */*;q=0.1"
)

// Options tune a single fetch.
type Options struct {
	Timeout    time.Duration
	AcceptJSON bool
}

// Response is the outcome of a fetch. Failures are values, never panics or
// returned errors: exhausted retries yield OK=false and Status=0.
type Response struct {
	OK       bool
	Status   int
	Header   http.Header
	Body     []byte
	FinalURL string
	Attempts int
	Err      error
}

// Fetcher owns the per-host rate limiters and the robots cache for a run.
type Fetcher struct {
	cfg     *config.Config
	client  *resty.Client
	limiter *hostLimiter
	robots  *robotsCache
	Metrics *Metrics
	logger  *slog.Logger
}

// New builds a fetcher configured from cfg.
func New(cfg *config.Config) (*Fetcher, error) {
	robots, err := newRobotsCache(cfg.RobotsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create robots cache: %w", err)
	}

	logger := slog.Default().With(slog.String("component", "fetch"))
	client := resty.New().
		SetLogger(restyLogger{logger: logger}).
		SetHeader("User-Agent", cfg.UserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetTransport(&http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		})

	return &Fetcher{
		cfg:     cfg,
		client:  client,
		limiter: newHostLimiter(cfg.MinInterval),
		robots:  robots,
		Metrics: NewMetrics(),
		logger:  logger,
	}, nil
}

// WithTransport swaps the HTTP transport, mainly for tests.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.client.SetTransport(rt)
}

// Get issues a GET for rawURL. Connection failures are retried up to
// cfg.MaxRetries times with capped exponential backoff. Timeouts and
// cancellations are returned immediately.
func (f *Fetcher) Get(ctx context.Context, rawURL string, opts Options) *Response {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.cfg.Timeout
	}
	host := hostKey(rawURL)

	var resp *Response
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			f.Metrics.IncRetries()
			delay := f.backoff(attempt)
			f.logger.Debug("retrying fetch",
				slog.String("url", rawURL),
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
			)
			if err := sleepContext(ctx, delay); err != nil {
				resp = failure(rawURL, ErrTimeout{Err: err})
				break
			}
		}
		if err := f.limiter.Wait(ctx, host); err != nil {
			resp = failure(rawURL, ErrTimeout{Err: err})
			break
		}

		resp = f.do(ctx, rawURL, timeout, opts.AcceptJSON)
		resp.Attempts = attempt + 1
		if resp.Err == nil || !retryable(resp.Err) {
			break
		}
	}

	if resp.OK {
		f.Metrics.IncRequest("ok")
	} else {
		category := ErrorTypeLabel(resp.Err)
		f.Metrics.IncRequest("failed")
		f.Metrics.IncError(category)
		f.logger.Warn("fetch failed",
			slog.String("url", rawURL),
			slog.Int("status", resp.Status),
			slog.String("category", category),
			slog.Int("attempts", resp.Attempts),
			slog.Any("error", resp.Err),
		)
	}
	return resp
}

func (f *Fetcher) do(ctx context.Context, rawURL string, timeout time.Duration, wantJSON bool) *Response {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	accept := acceptHTML
	if wantJSON {
		accept = acceptJSON
	}

	start := time.Now()
	res, err := f.client.R().
		SetContext(reqCtx).
		SetHeader("Accept", accept).
		Get(rawURL)
	f.Metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return failure(rawURL, classifyError(err, 0))
	}

	out := &Response{
		Status:   res.StatusCode(),
		Header:   res.Header(),
		Body:     res.Body(),
		FinalURL: rawURL,
	}
	if raw := res.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		out.FinalURL = raw.Request.URL.String()
	}
	out.OK = out.Status >= http.StatusOK && out.Status < http.StatusMultipleChoices
	if !out.OK {
		out.Err = classifyError(nil, out.Status)
	}
	return out
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := f.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := f.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func retryable(err error) bool {
	if IsTimeout(err) {
		return false
	}
	var conn ErrConnection
	return errors.As(err, &conn)
}

func failure(rawURL string, err error) *Response {
	return &Response{OK: false, Status: 0, FinalURL: rawURL, Err: err}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func hostKey(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(parsed.Hostname())
}

type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), slog.String("source", "resty"))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("source", "resty"))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("source", "resty"))
}
