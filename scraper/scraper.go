// Package scraper crawls wiki film categories with colly and emits movie
// records, optionally enriched with a rating from a second site.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-scrape-movies/config"
	"github.com/aluiziolira/go-scrape-movies/models"
	"github.com/aluiziolira/go-scrape-movies/parser"
	"github.com/aluiziolira/go-scrape-movies/quota"
)

const (
	kindKey  = "kind"
	draftKey = "draft"
	startKey = "start"
)

// Scraper wraps the colly collector and drives the category crawl.
type Scraper struct {
	cfg        *config.Config
	collector  *colly.Collector
	retry      *retryManager
	Metrics    *Metrics
	profile    parser.Profile
	guard      *quota.Guard
	visited    *VisitedSet
	controller *Controller
	resolver   *Resolver
	enricher   Enricher
	emitter    *Emitter

	requestCount  int64
	categoryCount int64
	articleCount  int64
	errorCount    int64
	droppedCount  int64
	enrichedCount int64

	mu           sync.Mutex
	failedURLs   []string
	errorsByType map[string]int

	handlersOnce sync.Once
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	if len(cfg.StartURLs) == 0 {
		return nil, fmt.Errorf("no start urls configured")
	}
	profile, err := parser.ProfileByName(cfg.Site)
	if err != nil {
		return nil, err
	}
	mode, err := quota.ParseMode(cfg.QuotaMode)
	if err != nil {
		return nil, err
	}
	visited, err := NewVisitedSet(cfg.VisitedMaxSize)
	if err != nil {
		return nil, fmt.Errorf("visited set: %w", err)
	}

	collector := colly.NewCollector(
		colly.Async(true),
		colly.AllowedDomains(cfg.AllowedDomains()...),
		colly.UserAgent(cfg.UserAgent),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	guard := quota.NewGuard(cfg.MaxMovies, mode)
	s := &Scraper{
		cfg:          cfg,
		collector:    collector,
		errorsByType: make(map[string]int),
		Metrics:      NewMetrics(),
		profile:      profile,
		guard:        guard,
		visited:      visited,
		controller:   NewController(profile, guard, visited),
		resolver:     NewResolver(cfg.Enrichment.Enabled, cfg.Enrichment.BaseURL, cfg.Enrichment.AcceptLanguage),
	}
	s.retry = newRetryManager(cfg, s.Metrics)
	return s, nil
}

// Guard exposes the run's quota guard.
func (s *Scraper) Guard() *quota.Guard {
	return s.guard
}

// Run crawls every start URL and streams movies into sink until the
// frontier is exhausted. Cancelling ctx stops new scheduling; requests
// already in flight still complete.
func (s *Scraper) Run(ctx context.Context, sink Sink) (*models.ScraperResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.retry.SetContext(ctx)
	s.emitter = NewEmitter(s.guard, sink, s.Metrics)
	s.configureHandlers(ctx)

	start := time.Now()
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			s.retry.Stop()
		case <-done:
		}
	}()

	seeded := 0
	var seedErr error
	for _, seed := range s.cfg.StartURLs {
		s.visited.Add(seed)
		if err := s.dispatch(WorkItem{Kind: CategoryVisit, URL: seed}, nil); err != nil {
			slog.Error("seed visit failed", slog.String("url", seed), slog.Any("error", err))
			seedErr = errors.Join(seedErr, err)
			continue
		}
		seeded++
	}
	if seeded == 0 {
		return nil, fmt.Errorf("initial visit: %w", seedErr)
	}

	// Retries are re-issued from inside collector callbacks, so one Wait
	// covers them too.
	s.collector.Wait()
	s.retry.Stop()

	result := &models.ScraperResult{
		StartTime:     start,
		EndTime:       time.Now(),
		EmittedCount:  s.guard.Emitted(),
		DroppedCount:  int(atomic.LoadInt64(&s.droppedCount)),
		EnrichedCount: int(atomic.LoadInt64(&s.enrichedCount)),
		ErrorCount:    int(atomic.LoadInt64(&s.errorCount)),
		FailedURLs:    s.snapshotFailedURLs(),
		ErrorsByType:  s.snapshotErrors(),
		RetryCount:    s.retry.TotalRetries(),
		RequestCount:  int(atomic.LoadInt64(&s.requestCount)),
		CategoryCount: int(atomic.LoadInt64(&s.categoryCount)),
		ArticleCount:  int(atomic.LoadInt64(&s.articleCount)),
	}

	if counter, ok := sink.(interface{ GetMetrics() map[string]interface{} }); ok {
		if processed, ok := counter.GetMetrics()["processed_movies"].(int64); ok {
			result.TotalCount = int(processed)
		}
	}

	return result, nil
}

// dispatch hands a work item to colly. Relative URLs resolve against from.
func (s *Scraper) dispatch(item WorkItem, from *colly.Request) error {
	target := item.URL
	if from != nil {
		target = from.AbsoluteURL(item.URL)
	}
	if target == "" {
		return fmt.Errorf("cannot resolve %q", item.URL)
	}

	ctx := colly.NewContext()
	ctx.Put(kindKey, item.Kind.String())
	if item.Draft != nil {
		ctx.Put(draftKey, &pendingDraft{draft: item.Draft})
	}

	header := http.Header{}
	for key, values := range item.Header {
		header[key] = append([]string(nil), values...)
	}
	header.Set("User-Agent", s.cfg.UserAgent)

	return s.collector.Request(http.MethodGet, target, nil, ctx, header)
}

func (s *Scraper) configureHandlers(ctx context.Context) {
	s.handlersOnce.Do(func() {
		s.collector.OnRequest(func(r *colly.Request) {
			r.Ctx.Put(startKey, time.Now())
			current := atomic.AddInt64(&s.requestCount, 1)
			s.Metrics.IncRequest(requestKind(r).String())
			if current%50 == 0 {
				slog.Debug("scraper request progress",
					slog.Int64("requests", current),
					slog.Int("emitted", s.guard.Emitted()),
					slog.String("url", r.URL.String()),
				)
			}
		})

		s.collector.OnResponse(func(r *colly.Response) {
			if r.StatusCode >= http.StatusBadRequest {
				slog.Error("non-200 response",
					slog.Int("status", r.StatusCode),
					slog.String("url", r.Request.URL.String()),
				)
			}
			if start, ok := r.Request.Ctx.GetAny(startKey).(time.Time); ok {
				s.Metrics.ObserveDuration(time.Since(start))
			}
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			atomic.AddInt64(&s.errorCount, 1)
			statusCode := 0
			if r != nil {
				statusCode = r.StatusCode
			}
			classified := classifyError(err, statusCode)
			category := errorTypeLabel(classified)

			s.mu.Lock()
			s.errorsByType[category]++
			s.mu.Unlock()

			var req *colly.Request
			url := ""
			if r != nil && r.Request != nil && r.Request.URL != nil {
				req = r.Request
				url = req.URL.String()
			}
			slog.Error("request error",
				slog.String("url", url),
				slog.String("category", category),
				slog.Any("error", err),
			)
			s.Metrics.IncError(category)

			if req == nil {
				return
			}
			if ctx.Err() == nil && s.retry.Retry(req) {
				return
			}
			s.giveUp(req)
		})

		s.collector.OnHTML("html", func(e *colly.HTMLElement) {
			kind := requestKind(e.Request)
			s.Metrics.IncPage(kind.String())
			switch {
			case kind.IsCategory():
				s.handleCategory(ctx, e)
			case kind == DetailVisit:
				s.handleDetail(ctx, e)
			case kind == EnrichmentVisit:
				s.handleEnrichment(e)
			}
		})

		// A rating response that was not HTML still has to finalize its draft.
		s.collector.OnScraped(func(r *colly.Response) {
			if requestKind(r.Request) != EnrichmentVisit {
				return
			}
			s.finalizePending(r.Request, "not_html")
		})
	})
}

func (s *Scraper) handleCategory(ctx context.Context, e *colly.HTMLElement) {
	atomic.AddInt64(&s.categoryCount, 1)
	page := parser.ParseCategoryPage(e.DOM, s.profile)

	for item := range s.controller.Plan(page) {
		if ctx.Err() != nil {
			return
		}
		if err := s.dispatch(item, e.Request); err != nil {
			logDispatchError(item, err)
		}
	}
}

func (s *Scraper) handleDetail(ctx context.Context, e *colly.HTMLElement) {
	atomic.AddInt64(&s.articleCount, 1)
	pageURL := e.Request.URL.String()
	if !s.guard.CanEmit() {
		s.drop("quota", pageURL)
		return
	}

	draft := parser.BuildDraft(e.DOM, s.profile, s.cfg.Enrichment.LinkMarker, pageURL)
	res := s.resolver.Resolve(draft)
	if !res.NeedsEnrichment() {
		s.emit(res.Record)
		return
	}
	if ctx.Err() != nil {
		s.abandon(draft, "cancelled")
		return
	}

	item := s.resolver.EnrichmentVisit(res)
	if err := s.dispatch(item, e.Request); err != nil {
		logDispatchError(item, err)
		s.abandon(draft, "dispatch_failed")
	}
}

func (s *Scraper) handleEnrichment(e *colly.HTMLElement) {
	pending, ok := e.Request.Ctx.GetAny(draftKey).(*pendingDraft)
	if !ok {
		return
	}
	pending.finalize(func(draft *models.Draft) {
		movie, rated := s.enricher.Complete(e.DOM, draft)
		if rated {
			atomic.AddInt64(&s.enrichedCount, 1)
			s.Metrics.IncEnrichment("rated")
		} else {
			s.Metrics.IncEnrichment("unrated")
		}
		s.emit(movie)
	})
}

// giveUp records a request that will not be retried and, for rating
// lookups, settles the carried draft.
func (s *Scraper) giveUp(req *colly.Request) {
	s.mu.Lock()
	s.failedURLs = append(s.failedURLs, req.URL.String())
	s.mu.Unlock()

	if requestKind(req) == EnrichmentVisit {
		s.finalizePending(req, "failed")
	}
}

func (s *Scraper) finalizePending(req *colly.Request, outcome string) {
	pending, ok := req.Ctx.GetAny(draftKey).(*pendingDraft)
	if !ok {
		return
	}
	pending.finalize(func(draft *models.Draft) {
		s.abandon(draft, outcome)
	})
}

// abandon handles a draft whose rating lookup cannot complete.
func (s *Scraper) abandon(draft *models.Draft, outcome string) {
	s.Metrics.IncEnrichment(outcome)
	if !s.cfg.Enrichment.FinalizeOnError {
		slog.Warn("rating lookup failed, movie discarded",
			slog.String("url", draft.URL),
			slog.String("outcome", outcome),
		)
		s.drop("enrichment_"+outcome, draft.URL)
		return
	}
	slog.Debug("rating lookup failed, emitting without rating",
		slog.String("url", draft.URL),
		slog.String("outcome", outcome),
	)
	s.emit(draft.Finalize(""))
}

func (s *Scraper) emit(movie *models.Movie) {
	if !s.emitter.Emit(movie) {
		atomic.AddInt64(&s.droppedCount, 1)
	}
}

func (s *Scraper) drop(reason, url string) {
	atomic.AddInt64(&s.droppedCount, 1)
	s.Metrics.IncDropped(reason)
	slog.Debug("movie dropped", slog.String("reason", reason), slog.String("url", url))
}

func requestKind(r *colly.Request) WorkKind {
	if r == nil || r.Ctx == nil {
		return CategoryVisit
	}
	kind, ok := parseWorkKind(r.Ctx.Get(kindKey))
	if !ok {
		return CategoryVisit
	}
	return kind
}

func logDispatchError(item WorkItem, err error) {
	if errors.Is(err, colly.ErrAlreadyVisited) {
		slog.Debug("already visited", slog.String("kind", item.Kind.String()), slog.String("url", item.URL))
		return
	}
	slog.Warn("dispatch failed",
		slog.String("kind", item.Kind.String()),
		slog.String("url", item.URL),
		slog.Any("error", err),
	)
}

func (s *Scraper) snapshotFailedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failedURLs))
	copy(out, s.failedURLs)
	return out
}

func (s *Scraper) snapshotErrors() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}
