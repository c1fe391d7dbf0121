package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

type chromedpDriver struct {
	opts          Options
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

func launchChromedp(ctx context.Context, opts Options) (Driver, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1440, 900),
		chromedp.UserAgent(opts.UserAgent),
	)

	// The browser outlives any single request context; ctx only bounds
	// the launch itself.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		opts.Logger.Debug(fmt.Sprintf(format, args...))
	}))

	stop := context.AfterFunc(ctx, cancelBrowser)
	defer stop()

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("%w: start chrome: %v", ErrUnavailable, err)
	}

	opts.Logger.Debug("chrome started")
	return &chromedpDriver{
		opts:          opts,
		browserCtx:    browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
	}, nil
}

// Visit opens url in a fresh tab, waits for network idle (capped at
// NetworkIdleWait) plus SettleDelay, then captures HTML and a PNG.
func (d *chromedpDriver) Visit(ctx context.Context, url string) (*Snapshot, error) {
	tabCtx, cancelTab := chromedp.NewContext(d.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, d.opts.Timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	idle := make(chan struct{}, 1)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	if err := chromedp.Run(tabCtx,
		page.Enable(),
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(url),
	); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	timer := time.NewTimer(d.opts.NetworkIdleWait)
	defer timer.Stop()
	select {
	case <-idle:
	case <-timer.C:
		d.opts.Logger.Debug("network idle wait elapsed", slog.String("url", url))
	case <-tabCtx.Done():
		return nil, fmt.Errorf("render %s: %w", url, tabCtx.Err())
	}

	snap := &Snapshot{}
	actions := []chromedp.Action{
		chromedp.Sleep(d.opts.SettleDelay),
		chromedp.Location(&snap.URL),
		chromedp.OuterHTML("html", &snap.HTML, chromedp.ByQuery),
	}
	if d.opts.Screenshots {
		actions = append(actions, chromedp.FullScreenshot(&snap.Screenshot, 100))
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}
	if snap.URL == "" {
		snap.URL = url
	}
	return snap, nil
}

func (d *chromedpDriver) Close() error {
	d.cancelBrowser()
	d.cancelAlloc()
	return nil
}
