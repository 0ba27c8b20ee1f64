package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/purelit/pure-publications/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const publicationBucket = "publications"

// boltStore implements a Store backed by BoltDB. Values are JSON-encoded CachedRecords.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(publicationBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Get loads the record stored under key.
func (b *boltStore) Get(_ context.Context, key string) (domain.CachedRecord, bool, error) {
	var (
		rec domain.CachedRecord
		ok  bool
	)
	if b == nil || b.db == nil {
		return rec, false, nil
	}

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(publicationBucket))
		if bucket == nil {
			return fmt.Errorf("publication bucket missing")
		}
		value := bucket.Get([]byte(key))
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode cached record %q: %w", key, err)
		}
		ok = true
		return nil
	})
	if err != nil {
		return domain.CachedRecord{}, false, err
	}
	return rec, ok, nil
}

// Put overwrites the record stored under rec.Key.
func (b *boltStore) Put(_ context.Context, rec domain.CachedRecord) error {
	if b == nil || b.db == nil {
		return nil
	}
	if rec.Key == "" {
		return fmt.Errorf("cached record key is empty")
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode cached record: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(publicationBucket))
		if bucket == nil {
			return fmt.Errorf("publication bucket missing")
		}
		return bucket.Put([]byte(rec.Key), value)
	})
}

// Expiring walks the bucket and collects records expiring before the cutoff.
func (b *boltStore) Expiring(_ context.Context, before time.Time, limit int) ([]domain.CachedRecord, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	var out []domain.CachedRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(publicationBucket))
		if bucket == nil {
			return fmt.Errorf("publication bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var rec domain.CachedRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			if rec.ExpireAt.Before(before) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return soonestFirst(out, limit), nil
}

func soonestFirst(recs []domain.CachedRecord, limit int) []domain.CachedRecord {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].ExpireAt.Before(recs[j].ExpireAt)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
