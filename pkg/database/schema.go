package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const slotSchema = `CREATE TABLE IF NOT EXISTS kv_slots (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// EnsureSlotSchema creates the key-value slot table when it does not exist yet.
// The statement is portable between PostgreSQL and SQLite.
func EnsureSlotSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, slotSchema); err != nil {
		return fmt.Errorf("ensure kv_slots table: %w", err)
	}
	return nil
}
