package publish

import (
	"context"
	"fmt"
	"route-board-service/internal/domain"
	"route-board-service/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MultiSink submits to a primary sink first and, once that succeeds,
// notifies every follower concurrently. Only a primary failure fails the
// submit. Fan-out is best effort: the first follower error is logged once
// after every follower has returned.
type MultiSink struct {
	primary   ports.AssignmentSink
	followers []ports.AssignmentSink
	log       zerolog.Logger
}

func NewMultiSink(log zerolog.Logger, primary ports.AssignmentSink, followers ...ports.AssignmentSink) *MultiSink {
	return &MultiSink{primary: primary, followers: followers, log: log}
}

func (m *MultiSink) Submit(ctx context.Context, cmd domain.AssignmentCommand) error {
	if err := m.primary.Submit(ctx, cmd); err != nil {
		return fmt.Errorf("submit command %s: %w", cmd.ID, err)
	}

	var g errgroup.Group
	for i, f := range m.followers {
		g.Go(func() error {
			if err := f.Submit(ctx, cmd); err != nil {
				return fmt.Errorf("follower %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.log.Warn().
			Err(err).
			Str("command_id", cmd.ID).
			Str("route_id", cmd.RouteID).
			Msg("assignment fan-out failed")
	}

	return nil
}
