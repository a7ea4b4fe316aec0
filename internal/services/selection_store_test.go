package services

import (
	"context"
	"errors"
	"route-board-service/internal/adapters/render"
	"route-board-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionStoreSetsAreIndependent(t *testing.T) {
	s := NewSelectionStore()

	assert.Equal(t, []string{"1"}, s.ToggleRoute("1"))
	assert.Equal(t, []string{"b1"}, s.ToggleBooking("b1"))
	assert.Equal(t, []string{}, s.ToggleRoute("1"))
	assert.Equal(t, []string{"b1"}, s.BookingIDs())

	s.ClearBookings()
	assert.Empty(t, s.BookingIDs())
}

func TestSelectionStoreSelectAllIsBinary(t *testing.T) {
	s := NewSelectionStore()
	all := []string{"1", "2", "3"}

	assert.Equal(t, all, s.SelectAllRoutes(all))
	assert.Empty(t, s.SelectAllRoutes(all))

	s.ToggleRoute("2")
	assert.Equal(t, all, s.SelectAllRoutes(all))

	assert.Equal(t, []string{"x", "y"}, s.SelectAllBookings([]string{"y", "x"}))
	assert.Empty(t, s.SelectAllBookings([]string{"x", "y"}))
}

func TestRouteBoardPushesRouteChangesToReconciler(t *testing.T) {
	catalog := &memCatalog{routes: []domain.Route{routeA, routeB}}
	directions := newGatedDirections()
	surface := render.NewMapSurface()
	reconciler := NewDirectionsReconciler(catalog, directions, surface)
	t.Cleanup(reconciler.Close)

	board := NewRouteBoard(catalog, NewSelectionStore(), reconciler)
	ctx := context.Background()

	ids, err := board.ToggleRoute(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids)
	directions.next(t).succeed()
	reconciler.Wait()

	// booking selection never triggers directions
	board.ToggleBooking("a1")
	directions.assertNoCall(t)

	ids, err = board.SelectAllRoutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)
	directions.next(t).succeed()
	directions.assertNoCall(t)
	reconciler.Wait()
	assert.Len(t, reconciler.Snapshot().Artifacts, 2)

	board.Disable()
	paths, _ := surface.Counts()
	assert.Zero(t, paths)

	require.NoError(t, board.Enable(ctx))
	directions.next(t).succeed()
	directions.next(t).succeed()
	reconciler.Wait()
	assert.Len(t, reconciler.Snapshot().Artifacts, 2)

	ids, err = board.SelectAllRoutes(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, reconciler.Snapshot().Artifacts)
}

func TestRouteBoardEnableRetriesFailedLookup(t *testing.T) {
	catalog := &flakyCatalog{
		memCatalog: memCatalog{routes: []domain.Route{routeA}},
		failures:   1,
		err:        errors.New("catalog timeout"),
	}
	directions := newGatedDirections()
	reconciler := NewDirectionsReconciler(catalog, directions, render.NewMapSurface())
	t.Cleanup(reconciler.Close)

	board := NewRouteBoard(catalog, NewSelectionStore(), reconciler)
	ctx := context.Background()

	_, err := board.ToggleRoute(ctx, "1")
	require.Error(t, err)
	directions.assertNoCall(t)

	require.NoError(t, board.Enable(ctx))
	directions.next(t).succeed()
	reconciler.Wait()
	assert.Len(t, reconciler.Snapshot().Artifacts, 1)
}
