package services

import (
	"context"
	"errors"
	"route-board-service/internal/adapters/render"
	"route-board-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconcilerFixture struct {
	catalog    *memCatalog
	metrics    *countingMetrics
	directions *gatedDirections
	surface    *render.MapSurface
	reconciler *DirectionsReconciler
}

func newReconcilerFixture(t *testing.T, routes ...domain.Route) *reconcilerFixture {
	t.Helper()
	f := &reconcilerFixture{
		catalog:    &memCatalog{routes: routes},
		metrics:    newCountingMetrics(),
		directions: newGatedDirections(),
		surface:    render.NewMapSurface(),
	}
	f.reconciler = NewDirectionsReconciler(f.catalog, f.directions, f.surface, WithReconcilerMetrics(f.metrics))
	t.Cleanup(f.reconciler.Close)
	return f
}

var (
	routeA = domain.Route{ID: "1", Stops: []domain.Stop{geoStop("a1", 10), geoStop("a2", 11)}}
	routeB = domain.Route{ID: "2", Stops: []domain.Stop{geoStop("b1", 20), geoStop("b2", 21), geoStop("b3", 22)}}
)

func TestReconcilerSelectRendersPathAndMarkers(t *testing.T) {
	f := newReconcilerFixture(t, routeA)
	ctx := context.Background()

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1"}))
	call := f.directions.next(t)

	assert.False(t, call.req.Alternatives)
	assert.Len(t, call.req.Waypoints, 2)
	assert.Equal(t, 10.0, call.req.Origin.Lat)
	assert.InDelta(t, 11.2, call.req.Destination.Lat, 1e-9)

	call.succeed()
	f.reconciler.Wait()

	assert.Equal(t, 1, f.directions.Count())
	paths, markers := f.surface.Counts()
	assert.Equal(t, 1, paths)
	assert.Equal(t, 4, markers)

	var pickups, drops []string
	for _, m := range f.surface.Markers("1") {
		assert.Equal(t, domain.Color("1"), m.Color)
		if m.Shape == domain.MarkerPickup {
			pickups = append(pickups, m.Label)
		} else {
			drops = append(drops, m.BookingID)
		}
	}
	assert.Equal(t, []string{"P1", "P2"}, pickups)
	assert.Equal(t, []string{"a1", "a2"}, drops)

	snap := f.reconciler.Snapshot()
	require.Len(t, snap.Artifacts, 1)
	assert.Equal(t, 1200, snap.Artifacts[0].Summary.DistanceMeters)
	assert.Empty(t, snap.Pending)
}

func TestReconcilerDeselectBeforeResponseDiscardsResult(t *testing.T) {
	f := newReconcilerFixture(t, routeA)
	ctx := context.Background()

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1"}))
	first := f.directions.next(t)

	require.NoError(t, f.reconciler.SetSelection(ctx, nil))
	assert.Empty(t, f.reconciler.Snapshot().Pending)

	first.succeed()
	f.reconciler.Wait()

	paths, markers := f.surface.Counts()
	assert.Zero(t, paths)
	assert.Zero(t, markers)

	// reselecting issues a new fetch
	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1"}))
	second := f.directions.next(t)
	second.succeed()
	f.reconciler.Wait()

	assert.Equal(t, 2, f.directions.Count())
	paths, _ = f.surface.Counts()
	assert.Equal(t, 1, paths)
}

func TestReconcilerReselectWhileStaleFetchInFlight(t *testing.T) {
	f := newReconcilerFixture(t, routeA)
	ctx := context.Background()

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1"}))
	stale := f.directions.next(t)
	require.NoError(t, f.reconciler.SetSelection(ctx, nil))
	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1"}))
	fresh := f.directions.next(t)

	// the superseded response must neither render nor clear the new pending marker
	stale.succeed()
	assert.Eventually(t, func() bool {
		return f.metrics.outcome(OutcomeStale) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"1"}, f.reconciler.Snapshot().Pending)

	fresh.succeed()
	f.reconciler.Wait()
	assert.Len(t, f.reconciler.Snapshot().Artifacts, 1)
	paths, _ := f.surface.Counts()
	assert.Equal(t, 1, paths)
}

func TestFetcherSuppressesDuplicatePending(t *testing.T) {
	f := newReconcilerFixture(t, routeA)

	f.reconciler.mu.Lock()
	f.reconciler.selected["1"] = struct{}{}
	f.reconciler.startFetchLocked(routeA)
	f.reconciler.startFetchLocked(routeA)
	f.reconciler.mu.Unlock()

	call := f.directions.next(t)
	f.directions.assertNoCall(t)
	call.succeed()
	f.reconciler.Wait()

	assert.Equal(t, 1, f.directions.Count())
	assert.Equal(t, 1, f.metrics.outcome(OutcomeDuplicate))
	assert.Equal(t, 1, f.metrics.outcome(OutcomeSuccess))
}

func TestReconcilerSameSelectionTwiceFetchesOnce(t *testing.T) {
	f := newReconcilerFixture(t, routeA)
	ctx := context.Background()

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1"}))
	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1"}))
	require.NoError(t, f.reconciler.Reconcile(ctx, nil, []string{"1"}))

	f.directions.next(t).succeed()
	f.directions.assertNoCall(t)
	f.reconciler.Wait()

	assert.Equal(t, 1, f.directions.Count())
}

func TestReconcilerFailureIsRetryable(t *testing.T) {
	f := newReconcilerFixture(t, routeA)
	ctx := context.Background()

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1"}))
	f.directions.next(t).fail(errors.New("ZERO_RESULTS"))
	f.reconciler.Wait()

	snap := f.reconciler.Snapshot()
	assert.Empty(t, snap.Artifacts)
	assert.Empty(t, snap.Pending)
	assert.Equal(t, []string{"1"}, snap.Selected)

	require.NoError(t, f.reconciler.SetSelection(ctx, nil))
	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1"}))
	f.directions.next(t).succeed()
	f.reconciler.Wait()

	assert.Len(t, f.reconciler.Snapshot().Artifacts, 1)
}

func TestReconcilerSkipsRoutesWithoutEnoughPoints(t *testing.T) {
	partial := domain.Route{ID: "3", Stops: []domain.Stop{
		{BookingID: "x", PickupLat: fp(1), PickupLng: fp(2)},
		{BookingID: "y"},
	}}
	f := newReconcilerFixture(t, partial)

	require.NoError(t, f.reconciler.SetSelection(context.Background(), []string{"3"}))
	f.directions.assertNoCall(t)

	snap := f.reconciler.Snapshot()
	assert.Empty(t, snap.Pending)
	assert.Empty(t, snap.Artifacts)
	assert.Equal(t, []string{"3"}, snap.Selected)
}

func TestReconcilerIndependentRoutes(t *testing.T) {
	f := newReconcilerFixture(t, routeA, routeB)
	ctx := context.Background()

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1", "2"}))
	c1 := f.directions.next(t)
	c2 := f.directions.next(t)

	// answer out of order
	c2.succeed()
	c1.succeed()
	f.reconciler.Wait()

	assert.Equal(t, 2, f.directions.Count())
	snap := f.reconciler.Snapshot()
	require.Len(t, snap.Artifacts, 2)
	assert.Equal(t, domain.Color("1"), snap.Artifacts[0].Color)
	assert.Equal(t, domain.Color("2"), snap.Artifacts[1].Color)
	assert.NotEqual(t, snap.Artifacts[0].Color, snap.Artifacts[1].Color)
	assert.Len(t, f.surface.Markers("2"), 6)

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"2"}))
	_, ok := f.surface.Path("1")
	assert.False(t, ok)
	assert.Empty(t, f.surface.Markers("1"))

	pathB, ok := f.surface.Path("2")
	assert.True(t, ok)
	assert.Equal(t, domain.Color("2"), pathB.Color)
	assert.Len(t, f.surface.Markers("2"), 6)
	assert.Equal(t, 2, f.directions.Count())
}

func TestReconcilerArtifactsMatchSelectionAfterSettling(t *testing.T) {
	routeC := domain.Route{ID: "3", Stops: []domain.Stop{geoStop("c1", 30)}}
	f := newReconcilerFixture(t, routeA, routeB, routeC)
	ctx := context.Background()

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1", "2", "3"}))
	calls := map[float64]*routingCall{}
	for i := 0; i < 3; i++ {
		c := f.directions.next(t)
		calls[c.req.Origin.Lat] = c
	}

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"2", "3"}))
	calls[10].succeed()
	calls[20].succeed()
	calls[30].fail(errors.New("upstream 503"))
	f.reconciler.Wait()

	snap := f.reconciler.Snapshot()
	require.Len(t, snap.Artifacts, 1)
	assert.Equal(t, "2", snap.Artifacts[0].RouteID)
	for _, a := range snap.Artifacts {
		assert.Contains(t, snap.Selected, a.RouteID)
	}
}

func TestReconcilerPreferLocalRoadsRefetches(t *testing.T) {
	f := newReconcilerFixture(t, routeA)
	ctx := context.Background()

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1"}))
	first := f.directions.next(t)
	assert.False(t, first.req.AvoidHighways)
	first.succeed()
	f.reconciler.Wait()

	f.reconciler.SetPreferLocalRoads(true)
	assert.Empty(t, f.reconciler.Snapshot().Artifacts)

	second := f.directions.next(t)
	assert.True(t, second.req.AvoidHighways)
	assert.True(t, second.req.AvoidTolls)
	second.succeed()
	f.reconciler.Wait()

	assert.Len(t, f.reconciler.Snapshot().Artifacts, 1)

	// unchanged flag is a no-op
	f.reconciler.SetPreferLocalRoads(true)
	f.directions.assertNoCall(t)
}

func TestReconcilerPreferLocalRoadsWhilePending(t *testing.T) {
	f := newReconcilerFixture(t, routeA)
	ctx := context.Background()

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1"}))
	old := f.directions.next(t)
	assert.False(t, old.req.AvoidHighways)

	f.reconciler.SetPreferLocalRoads(true)
	fresh := f.directions.next(t)
	assert.True(t, fresh.req.AvoidHighways)

	old.succeed()
	require.Eventually(t, func() bool {
		return f.metrics.outcome(OutcomeStale) == 1
	}, 2*time.Second, 5*time.Millisecond)

	snap := f.reconciler.Snapshot()
	assert.Empty(t, snap.Artifacts)
	assert.Equal(t, []string{"1"}, snap.Pending)

	fresh.succeed()
	f.reconciler.Wait()

	snap = f.reconciler.Snapshot()
	require.Len(t, snap.Artifacts, 1)
	assert.Empty(t, snap.Pending)
	assert.Equal(t, 2, f.directions.Count())
}

func TestReconcilerTeardownAll(t *testing.T) {
	f := newReconcilerFixture(t, routeA, routeB)
	ctx := context.Background()

	require.NoError(t, f.reconciler.SetSelection(ctx, []string{"1", "2"}))
	a := f.directions.next(t)
	b := f.directions.next(t)
	a.succeed()
	f.reconciler.Wait()
	// b is still pending
	f.reconciler.TeardownAll()
	snap := f.reconciler.Snapshot()
	assert.Empty(t, snap.Artifacts)
	assert.Empty(t, snap.Pending)
	assert.Empty(t, snap.Selected)

	b.succeed()
	f.reconciler.Wait()
	paths, markers := f.surface.Counts()
	assert.Zero(t, paths)
	assert.Zero(t, markers)
}

func TestReconcilerRenderFailureRollsBack(t *testing.T) {
	surface := &failingSurface{}
	directions := newGatedDirections()
	r := NewDirectionsReconciler(&memCatalog{routes: []domain.Route{routeA}}, directions, surface)
	t.Cleanup(r.Close)

	require.NoError(t, r.SetSelection(context.Background(), []string{"1"}))
	directions.next(t).succeed()
	r.Wait()

	assert.Empty(t, r.Snapshot().Artifacts)
	assert.Equal(t, []domain.Handle{"path-1"}, surface.removed)
}

func TestReconcilerUnknownRouteStaysSelected(t *testing.T) {
	f := newReconcilerFixture(t)

	require.NoError(t, f.reconciler.SetSelection(context.Background(), []string{"404"}))
	f.directions.assertNoCall(t)
	assert.Equal(t, []string{"404"}, f.reconciler.Snapshot().Selected)
}

func TestReconcilerRetriesFailedLookup(t *testing.T) {
	catalog := &flakyCatalog{
		memCatalog: memCatalog{routes: []domain.Route{routeA}},
		failures:   1,
		err:        errors.New("catalog timeout"),
	}
	directions := newGatedDirections()
	r := NewDirectionsReconciler(catalog, directions, render.NewMapSurface())
	t.Cleanup(r.Close)
	ctx := context.Background()

	err := r.SetSelection(ctx, []string{"1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog timeout")
	directions.assertNoCall(t)
	assert.Equal(t, []string{"1"}, r.Snapshot().Selected)

	require.NoError(t, r.SetSelection(ctx, []string{"1"}))
	directions.next(t).succeed()
	r.Wait()

	snap := r.Snapshot()
	assert.Len(t, snap.Artifacts, 1)

	// resolved routes are not fetched again
	require.NoError(t, r.SetSelection(ctx, []string{"1"}))
	directions.assertNoCall(t)
}

func TestDiffIDs(t *testing.T) {
	added, removed := diffIDs([]string{"1", "2", "3"}, []string{"3", "4", "4", "5"})
	assert.Equal(t, []string{"4", "5"}, added)
	assert.Equal(t, []string{"1", "2"}, removed)
}
