// Package service resolves a DOI to a merged publication record, serving from the cache
// when a fresh entry exists and refreshing it from the providers otherwise.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/purelit/pure-publications/internal/aggregator"
	"github.com/purelit/pure-publications/internal/domain"
	"github.com/purelit/pure-publications/internal/logger"
	"github.com/purelit/pure-publications/internal/merge"
	"github.com/purelit/pure-publications/pkg/publishers"
)

// ErrMissingDOI is returned when the request carries no usable DOI.
var ErrMissingDOI = errors.New("missing DOI parameter")

// Outcome tags reported per request.
const (
	TagCacheHit      = "cache-hit"
	TagCacheMiss     = "cache-miss"
	TagCacheDisabled = "cache-disabled"
	TagRefresh       = "refresh"
)

// Cache is the subset of cache.Gateway the service needs.
type Cache interface {
	Lookup(ctx context.Context, key string) (*domain.CachedRecord, error)
	IsFresh(rec *domain.CachedRecord, now time.Time) bool
	Store(ctx context.Context, key string, data domain.Record, source string) (domain.CachedRecord, error)
	Now() time.Time
}

// Aggregator collects provider contributions for a DOI.
type Aggregator interface {
	Aggregate(ctx context.Context, doi string) aggregator.Result
}

// EventPublisher delivers refresh events; publishers.Fanout satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Recorder receives request metrics; *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveRequest(outcome string)
	ObserveProvider(provider string, status int, d time.Duration)
	CacheError(op string)
	RefreshEvent(result string)
}

// Result is what a resolve or refresh produced.
type Result struct {
	RequestID string
	Record    domain.Record
	Source    string
	Tag       string
	Calls     []aggregator.Call
	Duration  time.Duration
}

// Service runs the lookup -> fetch -> merge -> store -> publish flow.
type Service struct {
	cache   Cache
	agg     Aggregator
	pub     EventPublisher
	metrics Recorder
	log     logger.Logger
}

// Option customises a Service.
type Option func(*Service)

func WithPublisher(p EventPublisher) Option { return func(s *Service) { s.pub = p } }

func WithMetrics(r Recorder) Option { return func(s *Service) { s.metrics = r } }

func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = logger.Ensure(l) } }

// New builds a Service over a cache and an aggregator.
func New(cache Cache, agg Aggregator, opts ...Option) *Service {
	s := &Service{
		cache:   cache,
		agg:     agg,
		metrics: nopRecorder{},
		log:     logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	return s
}

// Resolve returns the record for rawDOI. A fresh cache entry is served unless noCache is
// set; otherwise providers are queried and the merged record is stored. Provider and cache
// failures never surface as errors: the caller always gets a best-effort record.
func (s *Service) Resolve(ctx context.Context, rawDOI string, noCache bool) (Result, error) {
	start := time.Now()
	doi := domain.NormalizeDOI(rawDOI)
	if doi == "" {
		return Result{}, ErrMissingDOI
	}
	key := domain.CacheKey(doi)
	res := Result{RequestID: requestID(ctx), Tag: TagCacheDisabled}

	if !noCache {
		res.Tag = TagCacheMiss
		rec, err := s.cache.Lookup(ctx, key)
		if err != nil {
			s.metrics.CacheError("get")
			s.log.WarnObj("cache lookup failed, treating as miss", "cache_error", map[string]any{
				"request_id": res.RequestID,
				"doi":        doi,
				"error":      err.Error(),
			})
		} else if s.cache.IsFresh(rec, s.cache.Now()) {
			res.Tag = TagCacheHit
			res.Record = rec.Data
			res.Source = rec.Source
		}
	}

	if res.Tag != TagCacheHit {
		trigger := publishers.TriggerMiss
		if noCache {
			trigger = publishers.TriggerNoCache
		}
		s.fetch(ctx, doi, key, trigger, &res)
	}

	s.finish(start, doi, &res)
	return res, nil
}

// Refresh re-fetches doi from the providers and overwrites its cache entry regardless of
// freshness. Used by the scheduled refresher and the CLI.
func (s *Service) Refresh(ctx context.Context, rawDOI, trigger string) (Result, error) {
	start := time.Now()
	doi := domain.NormalizeDOI(rawDOI)
	if doi == "" {
		return Result{}, ErrMissingDOI
	}
	if trigger == "" {
		trigger = publishers.TriggerManual
	}

	res := Result{RequestID: requestID(ctx), Tag: TagRefresh}
	s.fetch(ctx, doi, domain.CacheKey(doi), trigger, &res)
	s.finish(start, doi, &res)
	return res, nil
}

func (s *Service) fetch(ctx context.Context, doi, key, trigger string, res *Result) {
	agg := s.agg.Aggregate(ctx, doi)
	res.Calls = agg.Calls
	for _, c := range agg.Calls {
		s.metrics.ObserveProvider(c.Provider, c.Status, c.Duration)
	}

	res.Record, res.Source = merge.Merge(doi, agg.Contributions)

	// An abandoned request carries no provider data; keep whatever is cached.
	if err := ctx.Err(); err != nil {
		s.log.WarnObj("request cancelled before store", "cache_skip", map[string]any{
			"request_id": res.RequestID,
			"doi":        doi,
			"error":      err.Error(),
		})
		return
	}

	stored, err := s.cache.Store(ctx, key, res.Record, res.Source)
	if err != nil {
		s.metrics.CacheError("put")
		s.log.ErrorObj("cache store failed", "cache_error", map[string]any{
			"request_id": res.RequestID,
			"doi":        doi,
			"error":      err.Error(),
		})
		return
	}

	s.publish(ctx, stored, trigger, res.RequestID)
}

func (s *Service) publish(ctx context.Context, stored domain.CachedRecord, trigger, requestID string) {
	if s.pub == nil {
		return
	}
	n, err := s.pub.Publish(ctx, publishers.NewEvent(stored, trigger, s.cache.Now()))
	if err != nil {
		s.metrics.RefreshEvent("failed")
		s.log.WarnObj("refresh event publish failed", "publish_error", map[string]any{
			"request_id": requestID,
			"doi":        stored.Data.DOI,
			"delivered":  n,
			"error":      err.Error(),
		})
		return
	}
	if n > 0 {
		s.metrics.RefreshEvent("published")
	}
}

func (s *Service) finish(start time.Time, doi string, res *Result) {
	res.Duration = time.Since(start)
	s.metrics.ObserveRequest(res.Tag)

	providers := make(map[string]any, len(res.Calls))
	for _, c := range res.Calls {
		entry := map[string]any{
			"status":        c.Status,
			"processing_ms": c.Duration.Milliseconds(),
		}
		if c.Err != nil {
			entry["error"] = c.Err.Error()
		}
		providers[c.Provider] = entry
	}

	s.log.InfoObj("publication request", "request", map[string]any{
		"request_id":    res.RequestID,
		"doi":           doi,
		"tag":           res.Tag,
		"providers":     providers,
		"title":         res.Record.Title,
		"source":        res.Source,
		"processing_ms": res.Duration.Milliseconds(),
	})
}

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id attached by WithRequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestID(ctx context.Context) string {
	if id := RequestIDFrom(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string)                      {}
func (nopRecorder) ObserveProvider(string, int, time.Duration) {}
func (nopRecorder) CacheError(string)                          {}
func (nopRecorder) RefreshEvent(string)                        {}
