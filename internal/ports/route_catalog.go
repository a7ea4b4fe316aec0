package ports

import (
	"context"
	"errors"
	"route-board-service/internal/domain"
)

var ErrRouteNotFound = errors.New("route not found")

// Port: a read-only boundary for retrieving Route records with their nested
// stops and bookings.
type RouteCatalog interface {
	ListRoutes(ctx context.Context) ([]domain.Route, error)
	// GetRoute returns ErrRouteNotFound when id is unknown.
	GetRoute(ctx context.Context, id string) (domain.Route, error)
}
