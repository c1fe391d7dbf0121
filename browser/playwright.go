package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"
)

type playwrightDriver struct {
	opts    Options
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

func launchPlaywright(opts Options) (Driver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: start playwright: %v", ErrUnavailable, err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: launch chromium: %v", ErrUnavailable, err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(opts.UserAgent),
		Viewport: &playwright.Size{
			Width:  1440,
			Height: 900,
		},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: create browser context: %v", ErrUnavailable, err)
	}

	return &playwrightDriver{opts: opts, pw: pw, browser: browser, context: bctx}, nil
}

func (d *playwrightDriver) Visit(ctx context.Context, url string) (*Snapshot, error) {
	pg, err := d.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	defer pg.Close()

	stop := context.AfterFunc(ctx, func() { _ = pg.Close() })
	defer stop()

	if _, err := pg.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(d.opts.Timeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	if err := pg.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(d.opts.NetworkIdleWait.Milliseconds())),
	}); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("render %s: %w", url, ctx.Err())
		}
		d.opts.Logger.Debug("network idle wait elapsed", slog.String("url", url))
	}
	pg.WaitForTimeout(float64(d.opts.SettleDelay.Milliseconds()))

	content, err := pg.Content()
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", url, err)
	}
	snap := &Snapshot{URL: pg.URL(), HTML: content}
	if d.opts.Screenshots {
		shot, err := pg.Screenshot(playwright.PageScreenshotOptions{
			FullPage: playwright.Bool(true),
			Type:     playwright.ScreenshotTypePng,
		})
		if err != nil {
			return nil, fmt.Errorf("screenshot %s: %w", url, err)
		}
		snap.Screenshot = shot
	}
	if snap.URL == "" {
		snap.URL = url
	}
	return snap, nil
}

func (d *playwrightDriver) Close() error {
	var errs []error
	if err := d.context.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close context: %w", err))
	}
	if err := d.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := d.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}
