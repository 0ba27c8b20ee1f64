package storage

import (
	"context"
	"sync"
	"time"

	"github.com/purelit/pure-publications/internal/domain"
)

// MemoryStore keeps records in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]domain.CachedRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]domain.CachedRecord)}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Get(_ context.Context, key string) (domain.CachedRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[key]
	return rec, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, rec domain.CachedRecord) error {
	m.mu.Lock()
	m.recs[rec.Key] = rec
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Expiring(_ context.Context, before time.Time, limit int) ([]domain.CachedRecord, error) {
	m.mu.RLock()
	out := make([]domain.CachedRecord, 0, len(m.recs))
	for _, rec := range m.recs {
		if rec.ExpireAt.Before(before) {
			out = append(out, rec)
		}
	}
	m.mu.RUnlock()
	return soonestFirst(out, limit), nil
}
