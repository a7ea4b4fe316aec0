package services

import (
	"context"
	"fmt"
	"route-board-service/internal/ports"
)

// RouteBoard couples the selection store with the directions reconciler:
// every route-selection change is pushed to the reconciler explicitly.
// Booking selection never touches directions.
type RouteBoard struct {
	Catalog    ports.RouteCatalog
	Selection  *SelectionStore
	Reconciler *DirectionsReconciler
}

func NewRouteBoard(catalog ports.RouteCatalog, selection *SelectionStore, reconciler *DirectionsReconciler) *RouteBoard {
	return &RouteBoard{Catalog: catalog, Selection: selection, Reconciler: reconciler}
}

func (b *RouteBoard) ToggleRoute(ctx context.Context, id string) ([]string, error) {
	ids := b.Selection.ToggleRoute(id)
	return ids, b.Reconciler.SetSelection(ctx, ids)
}

func (b *RouteBoard) SetRoutes(ctx context.Context, ids []string) ([]string, error) {
	selected := b.Selection.SetRoutes(ids)
	return selected, b.Reconciler.SetSelection(ctx, selected)
}

// SelectAllRoutes toggles between every catalog route and none.
func (b *RouteBoard) SelectAllRoutes(ctx context.Context) ([]string, error) {
	routes, err := b.Catalog.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("select all routes: %w", err)
	}

	all := make([]string, 0, len(routes))
	for _, r := range routes {
		all = append(all, r.ID)
	}

	ids := b.Selection.SelectAllRoutes(all)
	return ids, b.Reconciler.SetSelection(ctx, ids)
}

func (b *RouteBoard) ToggleBooking(id string) []string {
	return b.Selection.ToggleBooking(id)
}

func (b *RouteBoard) SelectAllBookings(all []string) []string {
	return b.Selection.SelectAllBookings(all)
}

func (b *RouteBoard) SetPreferLocalRoads(v bool) {
	b.Reconciler.SetPreferLocalRoads(v)
}

// Disable tears down every rendered route. Re-enabling replays the stored
// selection through the reconciler.
func (b *RouteBoard) Disable() {
	b.Reconciler.TeardownAll()
}

func (b *RouteBoard) Enable(ctx context.Context) error {
	return b.Reconciler.SetSelection(ctx, b.Selection.RouteIDs())
}
