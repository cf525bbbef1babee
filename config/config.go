package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-movies/parser"
	"github.com/aluiziolira/go-scrape-movies/quota"
)

// Default seed categories: films by alphabet and films by year.
var defaultStartURLs = []string{
	"https://ru.wikipedia.org/wiki/%D0%9A%D0%B0%D1%82%D0%B5%D0%B3%D0%BE%D1%80%D0%B8%D1%8F:%D0%A4%D0%B8%D0%BB%D1%8C%D0%BC%D1%8B_%D0%BF%D0%BE_%D0%B0%D0%BB%D1%84%D0%B0%D0%B2%D0%B8%D1%82%D1%83",
	"https://ru.wikipedia.org/wiki/%D0%9A%D0%B0%D1%82%D0%B5%D0%B3%D0%BE%D1%80%D0%B8%D1%8F:%D0%A4%D0%B8%D0%BB%D1%8C%D0%BC%D1%8B_%D0%BF%D0%BE_%D0%B3%D0%BE%D0%B4%D0%B0%D0%BC",
}

// Config holds scraper configuration.
type Config struct {
	StartURLs        []string      `yaml:"start_urls"`
	Site             string        `yaml:"site"` // ru or en
	MaxMovies        int           `yaml:"max_movies"`
	QuotaMode        string        `yaml:"quota_mode"` // best-effort or strict
	Parallelism      int           `yaml:"parallelism"`
	Delay            time.Duration `yaml:"delay"`
	RandomDelay      time.Duration `yaml:"random_delay"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	RetryBackoffMax  time.Duration `yaml:"retry_backoff_max"`
	UserAgent        string        `yaml:"user_agent"`
	RespectRobotsTxt bool          `yaml:"respect_robots_txt"`
	VisitedMaxSize   int           `yaml:"visited_max_size"`

	Enrichment EnrichmentConfig `yaml:"enrichment"`

	OutputFile         string `yaml:"output_file"`
	OutputFormat       string `yaml:"output_format"` // csv, json, dual, sqlite, or markdown
	PipelineBufferSize int    `yaml:"pipeline_buffer_size"`
	BatchSize          int    `yaml:"batch_size"`
	DedupeMaxSize      int    `yaml:"dedupe_max_size"`

	MetricsAddr string `yaml:"metrics_addr"`
	Verbose     bool   `yaml:"verbose"`
}

// EnrichmentConfig controls the chained rating lookup.
type EnrichmentConfig struct {
	Enabled         bool   `yaml:"enabled"`
	LinkMarker      string `yaml:"link_marker"`
	BaseURL         string `yaml:"base_url"`
	AcceptLanguage  string `yaml:"accept_language"`
	FinalizeOnError bool   `yaml:"finalize_on_error"`
}

// DefaultConfig returns conservative defaults for ru.wikipedia.org.
func DefaultConfig() *Config {
	return &Config{
		StartURLs:        append([]string(nil), defaultStartURLs...),
		Site:             parser.RussianProfile.Name,
		MaxMovies:        200,
		QuotaMode:        string(quota.BestEffort),
		Parallelism:      8,
		Delay:            0,
		RandomDelay:      0,
		Timeout:          15 * time.Second,
		MaxRetries:       2,
		RetryBackoff:     200 * time.Millisecond,
		RetryBackoffMax:  2 * time.Second,
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		RespectRobotsTxt: false,
		VisitedMaxSize:   10000,
		Enrichment: EnrichmentConfig{
			Enabled:         true,
			LinkMarker:      "imdb.com/title/tt",
			BaseURL:         "https://www.imdb.com/title/",
			AcceptLanguage:  "en-US,en;q=0.9",
			FinalizeOnError: true,
		},
		OutputFile:         "output/movies.csv",
		OutputFormat:       "csv",
		PipelineBufferSize: 512,
		BatchSize:          64,
		DedupeMaxSize:      100000,
		MetricsAddr:        "",
		Verbose:            false,
	}
}

// ParseStartURLs splits a comma-separated URL list, dropping blanks.
func ParseStartURLs(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// AllowedDomains lists every host the crawl may fetch from.
func (c *Config) AllowedDomains() []string {
	seen := make(map[string]struct{})
	var domains []string
	add := func(host string) {
		if host == "" {
			return
		}
		if _, ok := seen[host]; ok {
			return
		}
		seen[host] = struct{}{}
		domains = append(domains, host)
	}
	for _, raw := range c.StartURLs {
		if u, err := url.Parse(raw); err == nil {
			add(u.Hostname())
		}
	}
	if c.Enrichment.Enabled {
		add("www.imdb.com")
		add("imdb.com")
		if u, err := url.Parse(c.Enrichment.BaseURL); err == nil {
			add(u.Hostname())
		}
	}
	return domains
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if len(c.StartURLs) == 0 {
		return fmt.Errorf("start URLs cannot be empty")
	}
	for _, raw := range c.StartURLs {
		parsedURL, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid start URL %q: %w", raw, err)
		}
		if parsedURL.Host == "" {
			return fmt.Errorf("start URL %q must include a host", raw)
		}
	}
	if _, err := parser.ProfileByName(c.Site); err != nil {
		return err
	}

	if c.MaxMovies <= 0 {
		return fmt.Errorf("max movies must be positive")
	}
	if _, err := quota.ParseMode(c.QuotaMode); err != nil {
		return err
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.VisitedMaxSize <= 0 {
		return fmt.Errorf("visited max size must be positive")
	}

	if c.Enrichment.Enabled {
		if c.Enrichment.LinkMarker == "" {
			return fmt.Errorf("enrichment link marker cannot be empty")
		}
		u, err := url.Parse(c.Enrichment.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid enrichment base URL: %w", err)
		}
		if u.Host == "" {
			return fmt.Errorf("enrichment base URL must include a host")
		}
	}

	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.OutputFormat {
	case "csv", "json", "dual", "sqlite", "markdown":
	default:
		return fmt.Errorf("output format must be csv, json, dual, sqlite, or markdown")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	return nil
}
