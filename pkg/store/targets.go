package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TargetStore is a key-value view over the targets table. It satisfies the
// store contract the recommendation engine caches through, so a SQLite file
// can stand in for the snapshot cache.
type TargetStore struct {
	db *DB
}

// Targets returns the key-value view over the targets table.
func (db *DB) Targets() *TargetStore {
	return &TargetStore{db: db}
}

// Get returns the stored entry for key if present.
func (s *TargetStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry []byte
	err := s.db.QueryRowContext(ctx, "SELECT entry FROM targets WHERE key = ?", key).Scan(&entry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get target: %w", err)
	}
	return entry, true, nil
}

// Set stores entry under key, replacing any previous value.
func (s *TargetStore) Set(ctx context.Context, key string, entry []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO targets (key, entry, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET entry = excluded.entry, updated_at = excluded.updated_at
	`, key, entry, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set target: %w", err)
	}
	return nil
}

// Delete removes key if present.
func (s *TargetStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM targets WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	return nil
}
