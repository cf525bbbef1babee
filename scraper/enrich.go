package scraper

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-movies/models"
	"github.com/aluiziolira/go-scrape-movies/parser"
	"github.com/aluiziolira/go-scrape-movies/quota"
)

// Resolution is the outcome of resolving a draft: either it needs a rating
// lookup under ForeignID, or Record is already final.
type Resolution struct {
	Draft     *models.Draft
	ForeignID string
	Record    *models.Movie
}

// NeedsEnrichment reports whether a rating lookup must run before emission.
func (r Resolution) NeedsEnrichment() bool {
	return r.Record == nil
}

// Resolver decides whether a draft is chained through the rating site.
type Resolver struct {
	enabled        bool
	baseURL        string
	acceptLanguage string
}

// NewResolver builds a resolver. baseURL is joined with the identifier and
// a trailing slash, e.g. https://www.imdb.com/title/tt0211915/.
func NewResolver(enabled bool, baseURL, acceptLanguage string) *Resolver {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Resolver{enabled: enabled, baseURL: baseURL, acceptLanguage: acceptLanguage}
}

// Resolve finalizes drafts without a foreign identifier immediately.
func (r *Resolver) Resolve(draft *models.Draft) Resolution {
	if r.enabled && draft.ForeignID != "" {
		return Resolution{Draft: draft, ForeignID: draft.ForeignID}
	}
	return Resolution{Draft: draft, Record: draft.Finalize("")}
}

// EnrichmentVisit builds the rating request for a resolution that needs it.
func (r *Resolver) EnrichmentVisit(res Resolution) WorkItem {
	header := http.Header{}
	if r.acceptLanguage != "" {
		header.Set("Accept-Language", r.acceptLanguage)
	}
	return WorkItem{
		Kind:   EnrichmentVisit,
		URL:    r.baseURL + res.ForeignID + "/",
		Draft:  res.Draft,
		Header: header,
	}
}

// Enricher completes drafts from rating pages.
type Enricher struct{}

// Complete extracts the rating (if any) and finalizes the draft.
func (Enricher) Complete(doc *goquery.Selection, draft *models.Draft) (*models.Movie, bool) {
	rating, ok := parser.ExtractRating(doc)
	return draft.Finalize(rating), ok
}

// Sink receives emitted movies.
type Sink interface {
	Process(movies ...*models.Movie) error
}

// Emitter is the single gate every finalized movie passes through.
type Emitter struct {
	guard   *quota.Guard
	sink    Sink
	metrics *Metrics
}

// NewEmitter wires the quota guard to an output sink.
func NewEmitter(guard *quota.Guard, sink Sink, metrics *Metrics) *Emitter {
	return &Emitter{guard: guard, sink: sink, metrics: metrics}
}

// Emit sends m downstream unless the quota is exhausted, in which case the
// movie is dropped without error. It reports whether m was emitted.
func (e *Emitter) Emit(m *models.Movie) bool {
	if !e.guard.Acquire() {
		e.metrics.IncDropped("quota")
		slog.Debug("quota exhausted, dropping movie", slog.String("url", m.URL))
		return false
	}
	e.metrics.IncItems()
	e.metrics.SetEmitted(e.guard.Emitted())
	if err := e.sink.Process(m); err != nil {
		slog.Error("pipeline process error", slog.String("url", m.URL), slog.Any("error", err))
	}
	return true
}

// pendingDraft is the continuation carried by an enrichment request. It is
// finalized at most once whichever of success, failure, or shutdown happens first.
type pendingDraft struct {
	once  sync.Once
	draft *models.Draft
}

func (p *pendingDraft) finalize(fn func(*models.Draft)) bool {
	done := false
	p.once.Do(func() {
		fn(p.draft)
		done = true
	})
	return done
}
