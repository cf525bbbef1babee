package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-scrape-movies/config"
)

// retryManager re-issues failed requests with exponential backoff. Retries
// reuse the original request so its context (and any carried draft) survives.
//
// The backoff is waited out on the failing request's own callback goroutine.
// The collector still counts that request as in flight, so handing the retry
// back to it can never race with Collector.Wait returning.
type retryManager struct {
	cfg     *config.Config
	metrics *Metrics
	ctx     context.Context

	mu           sync.Mutex
	attempts     map[string]int
	totalRetries int
	stopped      bool
	stop         chan struct{}
}

func newRetryManager(cfg *config.Config, metrics *Metrics) *retryManager {
	return &retryManager{
		cfg:      cfg,
		attempts: make(map[string]int),
		metrics:  metrics,
		ctx:      context.Background(),
		stop:     make(chan struct{}),
	}
}

// Retry waits out the backoff for req and re-issues it. It must be called
// from a collector callback. It returns false when the retry budget is spent,
// the manager was stopped or the request could not be re-issued; the caller
// then gives the request up.
func (rm *retryManager) Retry(req *colly.Request) bool {
	delay, ctx, ok := rm.reserve(req)
	if !ok {
		return false
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-rm.stop:
		return false
	case <-ctx.Done():
		return false
	}

	if err := req.Retry(); err != nil {
		slog.Debug("retry visit failed", slog.String("url", req.URL.String()), slog.Any("error", err))
		return false
	}
	return true
}

// reserve books the next attempt for req and returns its backoff.
func (rm *retryManager) reserve(req *colly.Request) (time.Duration, context.Context, bool) {
	if rm.cfg.MaxRetries == 0 || req == nil || req.URL == nil {
		return 0, nil, false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.stopped || rm.ctx.Err() != nil {
		return 0, nil, false
	}

	url := req.URL.String()
	attempt := rm.attempts[url]
	if attempt >= rm.cfg.MaxRetries {
		return 0, nil, false
	}

	attempt++
	rm.attempts[url] = attempt
	rm.totalRetries++
	if rm.metrics != nil {
		rm.metrics.IncRetries()
	}
	return rm.backoff(attempt), rm.ctx, true
}

func (rm *retryManager) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := rm.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := rm.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

// Stop wakes every waiting retry and refuses new ones.
func (rm *retryManager) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.stopped {
		return
	}
	rm.stopped = true
	close(rm.stop)
}

func (rm *retryManager) TotalRetries() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.totalRetries
}

func (rm *retryManager) SetContext(ctx context.Context) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if ctx == nil {
		rm.ctx = context.Background()
		return
	}
	rm.ctx = ctx
}
