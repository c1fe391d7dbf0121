// Package browser renders pages in a headless browser for sites whose
// content only exists after client-side scripts run.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-artists/config"
)

// ErrUnavailable wraps launch failures so callers can tell a missing
// browser apart from a page that failed to render.
var ErrUnavailable = errors.New("browser unavailable")

// Snapshot is a rendered page.
type Snapshot struct {
	URL        string
	HTML       string
	Screenshot []byte
}

// Driver renders one page at a time. Implementations are not safe for
// concurrent Visit calls.
type Driver interface {
	Visit(ctx context.Context, url string) (*Snapshot, error)
	Close() error
}

// Launcher starts a Driver. The orchestrator takes a Launcher so tests can
// substitute a fake browser.
type Launcher func(ctx context.Context, opts Options) (Driver, error)

// Options controls page rendering.
type Options struct {
	Engine          string
	Timeout         time.Duration
	NetworkIdleWait time.Duration
	SettleDelay     time.Duration
	UserAgent       string
	Screenshots     bool
	Logger          *slog.Logger
}

// OptionsFromConfig maps scraper configuration onto browser options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	if logger == nil {
		logger = slog.Default()
	}
	return Options{
		Engine:          cfg.BrowserEngine,
		Timeout:         cfg.BrowserTimeout,
		NetworkIdleWait: cfg.NetworkIdleWait,
		SettleDelay:     cfg.SettleDelay,
		UserAgent:       cfg.UserAgent,
		Screenshots:     true,
		Logger:          logger.With(slog.String("component", "browser"), slog.String("engine", cfg.BrowserEngine)),
	}
}

// Launch starts the engine named by opts.Engine.
func Launch(ctx context.Context, opts Options) (Driver, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	switch opts.Engine {
	case config.EngineChromedp, "":
		return launchChromedp(ctx, opts)
	case config.EnginePlaywright:
		return launchPlaywright(opts)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrUnavailable, opts.Engine)
	}
}
