package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/purelit/pure-publications/internal/domain"
)

func sampleRecord(key string, expireAt time.Time) domain.CachedRecord {
	return domain.CachedRecord{
		Key:      key,
		ExpireAt: expireAt,
		Source:   "crossref",
		Data:     domain.Record{DOI: "10.1/" + key, Title: "Title " + key},
	}
}

// exerciseStore runs the shared Store contract against a backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	if _, ok, err := store.Get(ctx, `10.1\missing`); err != nil || ok {
		t.Fatalf("expected miss for unknown key, ok=%v err=%v", ok, err)
	}

	first := sampleRecord("a", now.Add(48*time.Hour))
	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Get after Put: ok=%v err=%v", ok, err)
	}
	if got.Data != first.Data || got.Source != "crossref" || !got.ExpireAt.Equal(first.ExpireAt) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, first)
	}

	overwrite := sampleRecord("a", now.Add(96*time.Hour))
	overwrite.Data.Title = "Updated"
	overwrite.Source = ""
	if err := store.Put(ctx, overwrite); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _, _ = store.Get(ctx, "a")
	if got.Data.Title != "Updated" || got.Source != "" {
		t.Fatalf("expected last write to win, got %+v", got)
	}

	if err := store.Put(ctx, sampleRecord("b", now.Add(time.Hour))); err != nil {
		t.Fatalf("Put b: %v", err)
	}
	if err := store.Put(ctx, sampleRecord("c", now.Add(2*time.Hour))); err != nil {
		t.Fatalf("Put c: %v", err)
	}

	expiring, err := store.Expiring(ctx, now.Add(24*time.Hour), 10)
	if err != nil {
		t.Fatalf("Expiring: %v", err)
	}
	if len(expiring) != 2 || expiring[0].Key != "b" || expiring[1].Key != "c" {
		t.Fatalf("unexpected expiring set %+v", expiring)
	}

	limited, err := store.Expiring(ctx, now.Add(24*time.Hour), 1)
	if err != nil || len(limited) != 1 || limited[0].Key != "b" {
		t.Fatalf("expected limit to keep soonest record, got %+v err=%v", limited, err)
	}
}

func TestBoltStoreContract(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	exerciseStore(t, store)
}

func TestBoltStoreRejectsEmptyKey(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	if err := store.Put(context.Background(), domain.CachedRecord{}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestMemoryStoreContract(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "")
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Put(context.Background(), sampleRecord("x", time.Now())); err != nil {
		t.Fatalf("noop store Put: %v", err)
	}
	if _, ok, _ := store.Get(context.Background(), "x"); ok {
		t.Fatalf("noop store should never hit")
	}
}

func TestNewStoreValidatesInput(t *testing.T) {
	if _, err := NewStore("bbolt", " "); err == nil {
		t.Fatalf("expected error for bbolt without path")
	}
	if _, err := NewStore("redis", "/tmp/x"); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
