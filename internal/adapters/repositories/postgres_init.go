package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitPostgresSchema creates the shared tables used when a Postgres
// database is configured: persisted assignment commands and the directions
// cache.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init postgres schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init postgres schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`
	CREATE TABLE IF NOT EXISTS assignment_commands (
		command_id UUID PRIMARY KEY,
		route_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		issued_at TIMESTAMPTZ NOT NULL
	);
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_assignment_commands_route_issued
	ON assignment_commands(route_id, issued_at);
	`,
		`
	CREATE TABLE IF NOT EXISTS directions_cache (
		cache_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		distance_meters INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		created_at BIGINT NOT NULL
	);
	`,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init postgres schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init postgres schema: commit tx: %w", err)
	}

	return nil
}
