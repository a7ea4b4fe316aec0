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

// SqliteAssignmentStore persists saved assignment commands locally. It
// implements both AssignmentSink and AssignmentHistory.
type SqliteAssignmentStore struct{ DB *sql.DB }

func NewSqliteAssignmentStore(db *sql.DB) *SqliteAssignmentStore {
	return &SqliteAssignmentStore{DB: db}
}

func (s *SqliteAssignmentStore) Submit(ctx context.Context, cmd domain.AssignmentCommand) (err error) {
	defer obs.Time(ctx, "commands.sqlite.Submit")(&err)

	if s.DB == nil {
		return errors.New("sqlite assignment store: DB is nil")
	}
	if cmd.ID == "" {
		return errors.New("submit command: id must not be empty")
	}

	payload, err := encodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("submit command: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, `
	INSERT INTO assignment_commands (
		command_id,
		route_id,
		vendor_id,
		payload,
		issued_at
	)
	VALUES (?, ?, ?, ?, ?);
	`, cmd.ID, cmd.RouteID, cmd.VendorID, payload, cmd.IssuedAt.UnixMilli()); err != nil {
		return fmt.Errorf("submit command id=%s: %w", cmd.ID, err)
	}
	return nil
}

// ListCommands returns commands oldest first. An empty routeID lists all.
func (s *SqliteAssignmentStore) ListCommands(ctx context.Context, routeID string) (_ []domain.AssignmentCommand, err error) {
	defer obs.Time(ctx, "commands.sqlite.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite assignment store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT command_id, route_id, vendor_id, payload, issued_at
	FROM assignment_commands
	WHERE ? = '' OR route_id = ?
	ORDER BY issued_at, command_id;
	`, routeID, routeID)
	if err != nil {
		return nil, fmt.Errorf("list commands: query assignment_commands table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AssignmentCommand, 0, 16)
	for rows.Next() {
		var cmd domain.AssignmentCommand
		var payload string
		var issuedMs int64
		if err := rows.Scan(&cmd.ID, &cmd.RouteID, &cmd.VendorID, &payload, &issuedMs); err != nil {
			return nil, fmt.Errorf("list commands: scan row: %w", err)
		}
		cmd.IssuedAt = time.UnixMilli(issuedMs).UTC()
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
