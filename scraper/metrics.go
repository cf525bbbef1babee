package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	PagesTotal        *prometheus.CounterVec
	ItemsScrapedTotal prometheus.Counter
	ItemsDroppedTotal *prometheus.CounterVec
	EnrichmentsTotal  *prometheus.CounterVec
	QuotaEmitted      prometheus.Gauge
	RetriesTotal      prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued by the scraper.",
		},
		[]string{"kind"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_pages_parsed_total",
			Help: "Total HTML pages parsed by kind.",
		},
		[]string{"kind"},
	)
	itemsScraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_items_scraped_total",
			Help: "Total number of movies sent to the pipeline.",
		},
	)
	itemsDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_items_dropped_total",
			Help: "Movies discarded before emission by reason.",
		},
		[]string{"reason"},
	)
	enrichments := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_enrichments_total",
			Help: "Rating lookups by outcome.",
		},
		[]string{"outcome"},
	)
	quotaEmitted := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_quota_emitted",
			Help: "Emissions counted against the quota.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total number of retry attempts scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, pages, itemsScraped, itemsDropped, enrichments, quotaEmitted, retries, errorsTotal)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		PagesTotal:        pages,
		ItemsScrapedTotal: itemsScraped,
		ItemsDroppedTotal: itemsDropped,
		EnrichmentsTotal:  enrichments,
		QuotaEmitted:      quotaEmitted,
		RetriesTotal:      retries,
		ErrorsTotal:       errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(kind string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(kind).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncPage counts a parsed page.
func (m *Metrics) IncPage(kind string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(kind).Inc()
}

// IncItems increments the items scraped counter.
func (m *Metrics) IncItems() {
	if m == nil {
		return
	}
	m.ItemsScrapedTotal.Inc()
}

// IncDropped counts a movie that was never emitted.
func (m *Metrics) IncDropped(reason string) {
	if m == nil {
		return
	}
	m.ItemsDroppedTotal.WithLabelValues(reason).Inc()
}

// IncEnrichment counts a rating lookup outcome.
func (m *Metrics) IncEnrichment(outcome string) {
	if m == nil {
		return
	}
	m.EnrichmentsTotal.WithLabelValues(outcome).Inc()
}

// SetEmitted mirrors the quota counter.
func (m *Metrics) SetEmitted(n int) {
	if m == nil {
		return
	}
	m.QuotaEmitted.Set(float64(n))
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
