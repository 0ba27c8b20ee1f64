// Package cache decides cache hits and persists merged records with a fixed time-to-live.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/purelit/pure-publications/internal/domain"
	"github.com/purelit/pure-publications/internal/storage"
)

// DefaultTTL is the expiration window applied to every stored record.
const DefaultTTL = 30 * 24 * time.Hour

// Gateway owns the CachedRecord lifecycle on top of a document store.
type Gateway struct {
	store storage.Store
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGateway wraps store with a ttl (DefaultTTL when ttl <= 0).
func NewGateway(store storage.Store, ttl time.Duration, opts ...Option) *Gateway {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	g := &Gateway{store: store, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TTL returns the configured expiration window.
func (g *Gateway) TTL() time.Duration { return g.ttl }

// Now returns the gateway clock's current time.
func (g *Gateway) Now() time.Time { return g.now() }

// Lookup returns the stored record for key, or nil when absent.
func (g *Gateway) Lookup(ctx context.Context, key string) (*domain.CachedRecord, error) {
	if g == nil || g.store == nil {
		return nil, nil
	}
	rec, ok, err := g.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cache lookup %q: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// IsFresh reports whether rec exists and expires after now.
func (g *Gateway) IsFresh(rec *domain.CachedRecord, now time.Time) bool {
	return domain.IsFresh(rec, now)
}

// Fresh looks up key and returns the record only if it is still fresh. The returned record
// is nil on a miss or a stale entry; err reports store failures.
func (g *Gateway) Fresh(ctx context.Context, key string) (*domain.CachedRecord, error) {
	rec, err := g.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if !g.IsFresh(rec, g.now()) {
		return nil, nil
	}
	return rec, nil
}

// Store overwrites the entry for key with data expiring ttl from now.
func (g *Gateway) Store(ctx context.Context, key string, data domain.Record, source string) (domain.CachedRecord, error) {
	rec := domain.CachedRecord{
		Key:      key,
		ExpireAt: g.now().Add(g.ttl),
		Data:     data,
		Source:   source,
	}
	if g.store == nil {
		return rec, nil
	}
	if err := g.store.Put(ctx, rec); err != nil {
		return rec, fmt.Errorf("cache store %q: %w", key, err)
	}
	return rec, nil
}

// Expiring lists stored records that expire within window from now.
func (g *Gateway) Expiring(ctx context.Context, window time.Duration, limit int) ([]domain.CachedRecord, error) {
	if g == nil || g.store == nil {
		return nil, nil
	}
	recs, err := g.store.Expiring(ctx, g.now().Add(window), limit)
	if err != nil {
		return nil, fmt.Errorf("cache expiring scan: %w", err)
	}
	return recs, nil
}
