package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-board-service/internal/domain"
	"route-board-service/internal/platform/obs"
	"time"
)

// SQLAssignmentStore is the Postgres counterpart of SqliteAssignmentStore.
type SQLAssignmentStore struct{ DB *sql.DB }

func NewSQLAssignmentStore(db *sql.DB) *SQLAssignmentStore {
	return &SQLAssignmentStore{DB: db}
}

func (s *SQLAssignmentStore) Submit(ctx context.Context, cmd domain.AssignmentCommand) (err error) {
	defer obs.Time(ctx, "commands.sql.Submit")(&err)

	if s.DB == nil {
		return errors.New("sql assignment store: DB is nil")
	}
	if cmd.ID == "" {
		return errors.New("submit command: id must not be empty")
	}

	payload, err := encodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("submit command: %w", err)
	}

	q := `
	INSERT INTO assignment_commands (command_id, route_id, vendor_id, payload, issued_at)
	VALUES ($1, $2, $3, $4, $5);
	`
	if _, err := s.DB.ExecContext(ctx, q, cmd.ID, cmd.RouteID, cmd.VendorID, payload, cmd.IssuedAt); err != nil {
		return fmt.Errorf("submit command id=%s: %w", cmd.ID, err)
	}
	return nil
}

func (s *SQLAssignmentStore) ListCommands(ctx context.Context, routeID string) (_ []domain.AssignmentCommand, err error) {
	defer obs.Time(ctx, "commands.sql.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sql assignment store: DB is nil")
	}

	q := `
	SELECT command_id::text, route_id, vendor_id, payload, issued_at
	FROM assignment_commands
	WHERE $1 = '' OR route_id = $1
	ORDER BY issued_at, command_id;
	`
	rows, err := s.DB.QueryContext(ctx, q, routeID)
	if err != nil {
		return nil, fmt.Errorf("list commands: query assignment_commands table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AssignmentCommand, 0, 16)
	for rows.Next() {
		var cmd domain.AssignmentCommand
		var payload string
		var issued time.Time
		if err := rows.Scan(&cmd.ID, &cmd.RouteID, &cmd.VendorID, &payload, &issued); err != nil {
			return nil, fmt.Errorf("list commands: scan row: %w", err)
		}
		cmd.IssuedAt = issued.UTC()
		if err := decodeCommand(&cmd, payload); err != nil {
			return nil, fmt.Errorf("list commands: %w", err)
		}
		out = append(out, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list commands: row iteration: %w", err)
	}

	return out, nil
}
