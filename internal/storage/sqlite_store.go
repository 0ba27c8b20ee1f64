package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/purelit/pure-publications/internal/domain"
	_ "modernc.org/sqlite"
)

// sqliteStore implements a Store backed by a single SQLite table.
type sqliteStore struct {
	db *sql.DB
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS publications (
		key TEXT PRIMARY KEY,
		expire_at INTEGER NOT NULL,
		source TEXT,
		data TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_publications_expire_at ON publications(expire_at);
`

// openSQLite opens or creates the SQLite cache database at path.
func openSQLite(path string) (*sqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite doesn't support concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get loads the record stored under key.
func (s *sqliteStore) Get(ctx context.Context, key string) (domain.CachedRecord, bool, error) {
	var (
		expireAt int64
		source   sql.NullString
		data     string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT expire_at, source, data FROM publications WHERE key = ?`, key,
	).Scan(&expireAt, &source, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CachedRecord{}, false, nil
	}
	if err != nil {
		return domain.CachedRecord{}, false, fmt.Errorf("query cached record: %w", err)
	}

	rec, err := decodeRow(key, expireAt, source, data)
	if err != nil {
		return domain.CachedRecord{}, false, err
	}
	return rec, true, nil
}

// Put upserts rec, replacing any existing row for the key.
func (s *sqliteStore) Put(ctx context.Context, rec domain.CachedRecord) error {
	if rec.Key == "" {
		return fmt.Errorf("cached record key is empty")
	}
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("encode record data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO publications (key, expire_at, source, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			expire_at = excluded.expire_at,
			source = excluded.source,
			data = excluded.data`,
		rec.Key, rec.ExpireAt.UnixMilli(), nullString(rec.Source), string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert cached record: %w", err)
	}
	return nil
}

// Expiring returns records with expire_at before the cutoff, soonest first.
func (s *sqliteStore) Expiring(ctx context.Context, before time.Time, limit int) ([]domain.CachedRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, expire_at, source, data FROM publications
		WHERE expire_at < ?
		ORDER BY expire_at ASC
		LIMIT ?`, before.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("query expiring records: %w", err)
	}
	defer rows.Close()

	var out []domain.CachedRecord
	for rows.Next() {
		var (
			key      string
			expireAt int64
			source   sql.NullString
			data     string
		)
		if err := rows.Scan(&key, &expireAt, &source, &data); err != nil {
			return nil, fmt.Errorf("scan expiring record: %w", err)
		}
		rec, err := decodeRow(key, expireAt, source, data)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func decodeRow(key string, expireAt int64, source sql.NullString, data string) (domain.CachedRecord, error) {
	rec := domain.CachedRecord{
		Key:      key,
		ExpireAt: time.UnixMilli(expireAt).UTC(),
		Source:   source.String,
	}
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return domain.CachedRecord{}, fmt.Errorf("decode cached record %q: %w", key, err)
	}
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
