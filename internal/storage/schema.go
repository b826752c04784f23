package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS lookups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		roll_number TEXT NOT NULL,
		kind TEXT CHECK(kind IN ('lookup', 'download', 'range')) NOT NULL,
		outcome TEXT NOT NULL,
		client_ip TEXT,
		request_id TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lookups_roll ON lookups(roll_number);
	CREATE INDEX IF NOT EXISTS idx_lookups_created_at ON lookups(created_at);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create lookups table: %w", err)
	}
	return nil
}
