package ports

import (
	"context"
	"route-board-service/internal/domain"
)

// A single turn-by-turn routing request. Waypoints are visited in the given
// order; the service must not reorder them.
type DirectionsRequest struct {
	Origin        domain.Coordinates
	Destination   domain.Coordinates
	Waypoints     []domain.Coordinates
	AvoidHighways bool
	AvoidTolls    bool
	// Alternatives is always false for the route board: one path per route.
	Alternatives bool
}

// A routed path with its totals.
type DirectionsResult struct {
	Path            []domain.Coordinates
	DistanceMeters  int
	DurationSeconds int
}

// Contract for the external turn-by-turn routing service.
type DirectionsService interface {
	Route(ctx context.Context, req DirectionsRequest) (DirectionsResult, error)
}
