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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/aluiziolira/go-scrape-movies/config"
	"github.com/aluiziolira/go-scrape-movies/models"
	"github.com/aluiziolira/go-scrape-movies/pipeline"
	"github.com/aluiziolira/go-scrape-movies/scraper"
)

// NewRootCmd creates the scraper command.
func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Crawl wiki film categories into structured movie records",
		Long: `scraper walks a wiki category tree, extracts title, genre, director,
country and year from every film article, and looks up the IMDb rating
when the article links to IMDb.

Settings are read from defaults, then the config file
($XDG_CONFIG_HOME/go-scrape-movies/config.yaml unless --config is given),
then SCRAPER_* environment variables, then flags.

Examples:
  # Crawl the default ru.wikipedia film categories
  scraper --max-movies 50

  # Crawl an English category into SQLite with an exact cap
  scraper --site en --start-urls https://en.wikipedia.org/wiki/Category:2001_films \
    --quota-mode strict --format sqlite --output output/movies.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runScrape,
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", "", "Configuration file path (default: "+config.DefaultConfigPath()+")")
	flags.String("start-urls", "", "Comma-separated category URLs to start from")
	flags.String("site", defaults.Site, "Site profile: ru or en")
	flags.IntP("max-movies", "n", defaults.MaxMovies, "Maximum number of movies to emit")
	flags.String("quota-mode", defaults.QuotaMode, "Quota mode: best-effort or strict")
	flags.IntP("parallel", "p", defaults.Parallelism, "Number of concurrent requests")
	flags.Duration("delay", defaults.Delay, "Delay between requests")
	flags.Duration("random-delay", defaults.RandomDelay, "Random jitter added to delay")
	flags.Duration("timeout", defaults.Timeout, "Request timeout")
	flags.Int("max-retries", defaults.MaxRetries, "Maximum retry attempts per URL")
	flags.Duration("retry-backoff", defaults.RetryBackoff, "Initial retry backoff")
	flags.Duration("retry-backoff-max", defaults.RetryBackoffMax, "Maximum retry backoff")
	flags.Bool("respect-robots", defaults.RespectRobotsTxt, "Respect robots.txt directives")
	flags.Bool("no-enrichment", false, "Skip the IMDb rating lookup")
	flags.Bool("drop-unrated-failures", false, "Discard movies whose rating lookup fails instead of emitting them unrated")
	flags.StringP("output", "o", defaults.OutputFile, "Output file path")
	flags.StringP("format", "f", defaults.OutputFormat, "Output format: csv, json, dual, sqlite, or markdown")
	flags.String("metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.BoolP("verbose", "v", false, "Enable verbose logging")

	return cmd
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	slog.Info("starting scrape",
		slog.Any("start_urls", cfg.StartURLs),
		slog.String("site", cfg.Site),
		slog.Int("max_movies", cfg.MaxMovies),
		slog.String("quota_mode", cfg.QuotaMode),
		slog.Int("workers", cfg.Parallelism),
		slog.Bool("enrichment", cfg.Enrichment.Enabled),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	runCtx, finish := context.WithCancel(ctx)
	defer finish()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, s.Metrics)
		})
	}

	var (
		result  *models.ScraperResult
		metrics map[string]interface{}
	)
	startTime := time.Now()
	g.Go(func() error {
		defer finish()

		p := pipeline.NewPipeline(ctx, writer, cfg)
		p.Start(cfg.Parallelism)
		if cfg.Verbose {
			p.StartMetricsReporting(10 * time.Second)
		}

		var err error
		result, err = s.Run(gctx, p)
		if closeErr := p.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("pipeline shutdown failed: %w", closeErr))
		}
		if err != nil {
			return fmt.Errorf("scraping failed: %w", err)
		}
		metrics = p.GetMetrics()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if err := writer.Validate(); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}

	printSummary(result, time.Since(startTime), cfg.OutputFile, metrics)
	return nil
}

// buildConfig layers defaults, the config file, environment and explicitly
// set flags, in that order.
func buildConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.DefaultConfig()

	path, _ := flags.GetString("config")
	if path != "" {
		if err := config.LoadFile(cfg, path, false); err != nil {
			return nil, err
		}
	} else if err := config.LoadFile(cfg, config.DefaultConfigPath(), true); err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = applyFlag(cfg, flags, f.Name)
	})
	if err != nil {
		return nil, err
	}

	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	return cfg, nil
}

func applyFlag(cfg *config.Config, flags *pflag.FlagSet, name string) error {
	var err error
	switch name {
	case "start-urls":
		var raw string
		raw, err = flags.GetString(name)
		cfg.StartURLs = config.ParseStartURLs(raw)
	case "site":
		cfg.Site, err = flags.GetString(name)
	case "max-movies":
		cfg.MaxMovies, err = flags.GetInt(name)
	case "quota-mode":
		cfg.QuotaMode, err = flags.GetString(name)
	case "parallel":
		cfg.Parallelism, err = flags.GetInt(name)
	case "delay":
		cfg.Delay, err = flags.GetDuration(name)
	case "random-delay":
		cfg.RandomDelay, err = flags.GetDuration(name)
	case "timeout":
		cfg.Timeout, err = flags.GetDuration(name)
	case "max-retries":
		cfg.MaxRetries, err = flags.GetInt(name)
	case "retry-backoff":
		cfg.RetryBackoff, err = flags.GetDuration(name)
	case "retry-backoff-max":
		cfg.RetryBackoffMax, err = flags.GetDuration(name)
	case "respect-robots":
		cfg.RespectRobotsTxt, err = flags.GetBool(name)
	case "no-enrichment":
		var off bool
		off, err = flags.GetBool(name)
		cfg.Enrichment.Enabled = !off
	case "drop-unrated-failures":
		var drop bool
		drop, err = flags.GetBool(name)
		cfg.Enrichment.FinalizeOnError = !drop
	case "output":
		cfg.OutputFile, err = flags.GetString(name)
	case "format":
		cfg.OutputFormat, err = flags.GetString(name)
	case "metrics-addr":
		cfg.MetricsAddr, err = flags.GetString(name)
	case "verbose":
		cfg.Verbose, err = flags.GetBool(name)
	}
	if err != nil {
		return fmt.Errorf("flag --%s: %w", name, err)
	}
	return nil
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	case "sqlite":
		return pipeline.NewSQLiteWriter(filename)
	case "markdown":
		return pipeline.NewMarkdownWriter(filename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func serveMetrics(ctx context.Context, addr string, metrics *scraper.Metrics) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}
