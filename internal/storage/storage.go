// Package storage provides the document store backing the publication cache.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/purelit/pure-publications/internal/domain"
)

// Store persists cached publication records keyed by cache key.
type Store interface {
	Close() error
	// Get returns the record for key; ok is false when nothing is stored.
	Get(ctx context.Context, key string) (rec domain.CachedRecord, ok bool, err error)
	// Put overwrites the record stored under rec.Key.
	Put(ctx context.Context, rec domain.CachedRecord) error
	// Expiring lists up to limit records whose expiry is before the given time, soonest first.
	Expiring(ctx context.Context, before time.Time, limit int) ([]domain.CachedRecord, error)
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "memory":
		return NewMemoryStore(), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("sqlite storage requires a path")
		}
		store, err := openSQLite(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

type noopStore struct{}

func (noopStore) Close() error { return nil }
func (noopStore) Get(context.Context, string) (domain.CachedRecord, bool, error) {
	return domain.CachedRecord{}, false, nil
}
func (noopStore) Put(context.Context, domain.CachedRecord) error { return nil }
func (noopStore) Expiring(context.Context, time.Time, int) ([]domain.CachedRecord, error) {
	return nil, nil
}
