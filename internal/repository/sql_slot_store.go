package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLSlotStore keeps slots in the kv_slots table (PostgreSQL or SQLite).
type SQLSlotStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLSlotStore constructs the repository.
func NewSQLSlotStore(db *sqlx.DB) *SQLSlotStore {
	return &SQLSlotStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Read fetches the slot value by key.
func (s *SQLSlotStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	query := s.db.Rebind(`SELECT value FROM kv_slots WHERE key = ?`)
	var value string
	if err := s.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Write upserts the slot value.
func (s *SQLSlotStore) Write(ctx context.Context, key string, value []byte) error {
	query := s.db.Rebind(`INSERT INTO kv_slots (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, key, string(value), s.now()); err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}
