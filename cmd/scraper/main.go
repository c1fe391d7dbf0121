package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-artists/config"
	"github.com/aluiziolira/go-scrape-artists/fetch"
	"github.com/aluiziolira/go-scrape-artists/models"
	"github.com/aluiziolira/go-scrape-artists/orchestrator"
)

// errRunFailed makes the process exit non-zero after a run that recorded
// errors. The result table has already been printed.
var errRunFailed = errors.New("run finished with errors")

type cli struct {
	name         string
	output       string
	configPath   string
	engine       string
	metricsAddr  string
	maxPages     int
	skipImages   bool
	skipAI       bool
	forceBrowser bool
	verbose      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	if err := c.command().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func (c *cli) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "artist-scraper <website-url>",
		Short:         "Extract an artist profile, CV and listings from a portfolio website.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&c.name, "name", "n", "", "Artist name (required)")
	flags.StringVarP(&c.output, "output", "o", "", "Output directory (default \"output\")")
	flags.StringVar(&c.configPath, "config", "", "YAML config file")
	flags.StringVar(&c.engine, "engine", "", "Browser engine: chromedp or playwright")
	flags.StringVar(&c.metricsAddr, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	flags.IntVar(&c.maxPages, "max-pages", 0, "Maximum secondary pages to visit")
	flags.BoolVar(&c.skipImages, "skip-images", false, "Do not download images")
	flags.BoolVar(&c.skipAI, "skip-ai", false, "Skip the enrichment step")
	flags.BoolVar(&c.forceBrowser, "force-browser", false, "Always render pages in a headless browser")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// config layers defaults, the YAML file, ARTIST_SCRAPER_* variables and
// explicitly set flags, in that order.
func (c *cli) config(cmd *cobra.Command, target string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if c.configPath != "" {
		if err := config.LoadFile(cfg, c.configPath); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	cfg.TargetURL = target
	cfg.ArtistName = strings.TrimSpace(c.name)
	if flags.Changed("output") {
		cfg.OutputDir = c.output
	}
	if flags.Changed("engine") {
		cfg.BrowserEngine = strings.ToLower(c.engine)
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = c.metricsAddr
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = c.maxPages
	}
	if flags.Changed("skip-images") {
		cfg.SkipImages = c.skipImages
	}
	if flags.Changed("skip-ai") {
		cfg.SkipAI = c.skipAI
	}
	if flags.Changed("force-browser") {
		cfg.ForceBrowser = c.forceBrowser
	}
	if flags.Changed("verbose") {
		cfg.Verbose = c.verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *cli) run(cmd *cobra.Command, target string) error {
	cfg, err := c.config(cmd, target)
	if err != nil {
		return err
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	f, err := fetch.New(cfg)
	if err != nil {
		return fmt.Errorf("initialising fetcher: %w", err)
	}

	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, abandoning in-flight work")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(f.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	slog.Info("starting scrape",
		slog.String("url", cfg.TargetURL),
		slog.String("artist", cfg.ArtistName),
		slog.Bool("force_browser", cfg.ForceBrowser),
	)
	result := orchestrator.Run(ctx, cfg, orchestrator.Deps{Fetcher: f, Logger: logger})

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(cmd, result)
	if !result.Success {
		return errRunFailed
	}
	return nil
}

func printSummary(cmd *cobra.Command, result *models.RunResult) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetTitle("Scrape complete")
	t.AppendRows([]table.Row{
		{"Run ID", result.RunID},
		{"Success", result.Success},
		{"Website", result.WebsiteURL},
		{"Platform", result.Platform},
		{"Strategy", result.Strategy},
		{"Escalated", result.Escalated},
		{"Pages", result.PageCount},
		{"Listings", result.Listings},
		{"CV entries", result.CvEntries},
		{"Images", fmt.Sprintf("%d downloaded, %d skipped, %d failed", result.Images.Downloaded, result.Images.Skipped, result.Images.Failed)},
		{"Warnings", result.Warnings},
		{"Errors", len(result.Errors)},
		{"Duration", result.Duration.Round(time.Millisecond)},
		{"Output", result.OutputDir},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(result.Errors) == 0 {
		return
	}
	errs := table.NewWriter()
	errs.SetOutputMirror(cmd.OutOrStdout())
	errs.AppendHeader(table.Row{"URL", "Error"})
	for _, e := range result.Errors {
		errs.AppendRow(table.Row{e.URL, e.Error})
	}
	errs.SetStyle(table.StyleRounded)
	errs.Render()
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
