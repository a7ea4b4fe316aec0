package ports

import (
	"context"
	"route-board-service/internal/domain"
)

// Port: receives saved assignment commands for persistence or fan-out.
type AssignmentSink interface {
	Submit(ctx context.Context, cmd domain.AssignmentCommand) error
}

// Optional read side for sinks that persist commands.
type AssignmentHistory interface {
	ListCommands(ctx context.Context, routeID string) ([]domain.AssignmentCommand, error)
}
