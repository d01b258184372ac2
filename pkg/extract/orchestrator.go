package extract

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Brashkie/tt-search/pkg/clients"
	"github.com/Brashkie/tt-search/pkg/logger"
	"github.com/Brashkie/tt-search/pkg/metrics"
	"github.com/Brashkie/tt-search/pkg/models"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// Config holds orchestrator tuning knobs. Zero values fall back to
// the defaults applied by NewOrchestrator.
type Config struct {
	// RequestsPerSecond is the shared fetch rate across all runs.
	RequestsPerSecond float64
	// Burst is the token bucket capacity.
	Burst int
	// AdaptiveRate switches the limiter to one that backs off when
	// the source responds slowly or with errors.
	AdaptiveRate bool
	// MaxPages caps pagination per run regardless of the query limit.
	MaxPages int
	// Retry overrides the per-page retry policy.
	Retry *RetryPolicy
	// Breaker overrides the circuit breaker settings.
	Breaker *clients.CircuitBreakerConfig
}

const defaultMaxPages = 50

// Orchestrator drives extraction runs: pagination, pacing, retries,
// circuit breaking, dedup, and validation. One orchestrator is meant
// to be shared process-wide so that every run draws from the same
// rate limiter and trips the same breaker.
type Orchestrator struct {
	fetcher  PageFetcher
	limiter  clients.RateLimiter
	adaptive *clients.AdaptiveRateLimiter // non-nil when AdaptiveRate is set
	breaker  *clients.FetchCircuitBreaker
	retry    *RetryPolicy
	log      *zap.Logger
	maxPages int
}

// NewOrchestrator creates an orchestrator over the given page source.
func NewOrchestrator(fetcher PageFetcher, cfg Config) *Orchestrator {
	rate := cfg.RequestsPerSecond
	if rate <= 0 {
		rate = 1.0
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 3
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	retry := cfg.Retry
	if retry == nil {
		retry = DefaultRetryPolicy()
	}
	breakerCfg := clients.DefaultCircuitBreakerConfig()
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
	}
	log := logger.Get()

	var limiter clients.RateLimiter
	var adaptive *clients.AdaptiveRateLimiter
	if cfg.AdaptiveRate {
		adaptive = clients.NewAdaptiveRateLimiter(rate, burst)
		limiter = adaptive
	} else {
		limiter = clients.NewRateLimiter(rate, burst)
	}

	return &Orchestrator{
		fetcher:  fetcher,
		limiter:  limiter,
		adaptive: adaptive,
		breaker:  clients.NewFetchCircuitBreaker(breakerCfg, log),
		retry:    retry,
		log:      log,
		maxPages: maxPages,
	}
}

// RunMeta carries statistics about a completed run.
type RunMeta struct {
	Duration     time.Duration `json:"duration"`
	Timestamp    time.Time     `json:"timestamp"`
	PagesFetched int           `json:"pagesFetched"`
	Duplicates   int           `json:"duplicates"`
	Dropped      int           `json:"dropped"`
}

// RunResult is the outcome of one extraction run. Success is true as
// soon as at least one record survived; a run that hit an error after
// collecting records still reports both the records and the error.
type RunResult struct {
	Success bool                  `json:"success"`
	Items   []*models.VideoRecord `json:"items"`
	Error   error                 `json:"-"`
	Meta    RunMeta               `json:"meta"`
}

// Run executes one extraction run. It returns whatever was collected
// even when pagination aborts early; the error field says why it
// stopped short, if it did.
func (o *Orchestrator) Run(ctx context.Context, query Query) *RunResult {
	start := time.Now()
	result := &RunResult{
		Items: []*models.VideoRecord{},
		Meta:  RunMeta{Timestamp: start},
	}
	finish := func(err error) *RunResult {
		result.Error = err
		result.Success = len(result.Items) > 0
		result.Meta.Duration = time.Since(start)
		return result
	}

	if err := query.Validate(); err != nil {
		return finish(err)
	}

	log := o.log.With(
		zap.String("query_type", string(query.Type)),
		zap.String("target", query.Target()),
		zap.Int("limit", query.Limit),
	)
	log.Info("extraction run started")

	seen := make(map[string]struct{}, query.Limit)
	cursor := ""

	for page := 0; page < o.maxPages; page++ {
		if !o.breaker.Allow() {
			log.Warn("circuit breaker open, aborting run",
				zap.Int("pages_fetched", result.Meta.PagesFetched))
			return finish(tterrors.New(tterrors.ErrorTypeBlocked,
				"source unavailable: circuit breaker open"))
		}

		waitStart := time.Now()
		if err := o.limiter.Wait(ctx); err != nil {
			return finish(tterrors.Wrap(err, tterrors.ErrorTypeTimeout,
				"cancelled while waiting for fetch slot"))
		}
		metrics.RateLimiterWait.Observe(time.Since(waitStart).Seconds())

		p, err := o.fetchPage(ctx, query, cursor)
		if err != nil {
			metrics.PagesFetched.WithLabelValues(string(query.Type), "failure").Inc()
			log.Warn("page fetch failed after retries",
				zap.Int("page", page), zap.Error(err))
			return finish(err)
		}
		metrics.PagesFetched.WithLabelValues(string(query.Type), "success").Inc()
		result.Meta.PagesFetched++

		scrapedAt := time.Now()
		for i := range p.Items {
			raw := &p.Items[i]
			if raw.ID != "" {
				if _, dup := seen[raw.ID]; dup {
					result.Meta.Duplicates++
					metrics.RecordsExtracted.WithLabelValues(string(query.Type), "duplicate").Inc()
					continue
				}
				seen[raw.ID] = struct{}{}
			}

			record, err := raw.ToRecord(scrapedAt)
			if err != nil {
				result.Meta.Dropped++
				metrics.RecordsExtracted.WithLabelValues(string(query.Type), "invalid").Inc()
				log.Debug("dropping invalid item",
					zap.String("id", raw.ID), zap.Error(err))
				continue
			}

			metrics.RecordsExtracted.WithLabelValues(string(query.Type), "valid").Inc()
			result.Items = append(result.Items, record)
			if len(result.Items) >= query.Limit {
				log.Info("extraction run reached limit",
					zap.Int("items", len(result.Items)),
					zap.Int("pages", result.Meta.PagesFetched))
				return finish(nil)
			}
		}

		if !p.HasMore || p.NextCursor == "" {
			break
		}
		cursor = p.NextCursor
	}

	log.Info("extraction run complete",
		zap.Int("items", len(result.Items)),
		zap.Int("pages", result.Meta.PagesFetched),
		zap.Int("duplicates", result.Meta.Duplicates),
		zap.Int("dropped", result.Meta.Dropped))
	return finish(nil)
}

// fetchPage fetches one page through retry and the circuit breaker.
// Blocked signals retry like any other failure; persistent blocking
// is the breaker's job to stop.
func (o *Orchestrator) fetchPage(ctx context.Context, query Query, cursor string) (*Page, error) {
	var page *Page
	err := o.retry.Execute(ctx, func() error {
		fetchStart := time.Now()
		p, err := o.fetcher.FetchPage(ctx, query, cursor)
		latency := time.Since(fetchStart)
		metrics.FetchLatency.WithLabelValues(string(query.Type)).
			Observe(latency.Seconds())
		if o.adaptive != nil {
			o.adaptive.RecordResponse(latency, err == nil)
		}
		if err != nil {
			o.breaker.RecordFailure()
			metrics.PagesFetched.WithLabelValues(string(query.Type), "retry").Inc()
			return err
		}
		o.breaker.RecordSuccess()
		page = p
		return nil
	})
	if err != nil {
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeRetryExhausted, "page fetch failed")
	}
	return page, nil
}
