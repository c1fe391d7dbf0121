package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-artists/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BrowserEngine = config.EnginePlaywright
	cfg.SettleDelay = 750 * time.Millisecond

	opts := OptionsFromConfig(cfg, nil)
	if opts.Engine != config.EnginePlaywright {
		t.Fatalf("engine = %q", opts.Engine)
	}
	if opts.SettleDelay != 750*time.Millisecond || opts.Timeout != cfg.BrowserTimeout {
		t.Fatalf("unexpected timings: %+v", opts)
	}
	if !opts.Screenshots || opts.Logger == nil {
		t.Fatalf("expected screenshots and a logger by default")
	}
}

func TestLaunchUnknownEngine(t *testing.T) {
	_, err := Launch(context.Background(), Options{Engine: "webkit"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
