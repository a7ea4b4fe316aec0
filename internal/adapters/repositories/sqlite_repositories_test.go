package repositories

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"route-board-service/internal/domain"
	"route-board-service/internal/platform/db"
	"route-board-service/internal/ports"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSqlite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, InitSchema(conn))
	return conn
}

func sampleSeeds() []RouteSeed {
	return []RouteSeed{
		{
			ID:                 "10",
			Name:               "Morning East",
			EstDistanceMeters:  ip(12000),
			EstDurationSeconds: ip(1800),
			Stops: []StopSeed{
				{BookingID: "b1", PickupLat: fp(12.9), PickupLng: fp(77.6), DropLat: fp(12.97), DropLng: fp(77.7)},
				{BookingID: "b2"},
			},
			Bookings: []BookingSeed{
				{ID: "b1", EmployeeCode: "E100", PickupLocation: "Indiranagar", Gender: "F", ShiftTime: "09:00"},
				{ID: "b2", EmployeeCode: "E101", PickupLocation: "Domlur", Gender: "M", ShiftTime: "09:00"},
			},
		},
		{ID: "2", Name: "Evening West"},
	}
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	assert.NoError(t, InitSchema(conn))
}

func TestCatalogListRoutesKeepsSeedOrder(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, SeedRoutes(conn, sampleSeeds()))

	routes, err := NewSqliteRouteCatalog(conn).ListRoutes(context.Background())
	require.NoError(t, err)
	require.Len(t, routes, 2)

	assert.Equal(t, "10", routes[0].ID)
	assert.Equal(t, "2", routes[1].ID)
	assert.Empty(t, routes[1].Stops)
	assert.Nil(t, routes[1].Estimations)

	r := routes[0]
	require.NotNil(t, r.Estimations)
	assert.Equal(t, 12000, r.Estimations.DistanceMeters)
	require.Len(t, r.Stops, 2)
	assert.True(t, r.Stops[0].Valid())
	assert.Equal(t, domain.Coordinates{Lon: 77.6, Lat: 12.9}, r.Stops[0].Pickup())
	assert.False(t, r.Stops[1].Valid())
	assert.Equal(t, []string{"b1", "b2"}, r.BookingIDs())
	assert.Equal(t, "Indiranagar", r.Bookings[0].PickupLocation)
}

func TestCatalogGetRoute(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, SeedRoutes(conn, sampleSeeds()))
	cat := NewSqliteRouteCatalog(conn)

	r, err := cat.GetRoute(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, "Morning East", r.Name)
	assert.Len(t, r.Stops, 2)
	assert.Len(t, r.Bookings, 2)

	_, err = cat.GetRoute(context.Background(), "404")
	assert.ErrorIs(t, err, ports.ErrRouteNotFound)
}

func TestSeedReplacesExistingRoute(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, SeedRoutes(conn, sampleSeeds()))

	again := []RouteSeed{{ID: "10", Name: "Renamed", Bookings: []BookingSeed{{ID: "b9"}}}}
	require.NoError(t, SeedRoutes(conn, again))

	r, err := NewSqliteRouteCatalog(conn).GetRoute(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", r.Name)
	assert.Empty(t, r.Stops)
	assert.Equal(t, []string{"b9"}, r.BookingIDs())
}

func TestSeedValidation(t *testing.T) {
	conn := openTestDB(t)
	assert.Error(t, SeedRoutes(conn, []RouteSeed{{ID: " "}}))
	assert.Error(t, SeedRoutes(conn, []RouteSeed{{ID: "1"}, {ID: "1"}}))
	assert.Error(t, SeedRoutes(conn, []RouteSeed{{ID: "1", Bookings: []BookingSeed{{ID: ""}}}}))
}

func TestSeedFromJSON(t *testing.T) {
	conn := openTestDB(t)
	path := filepath.Join(t.TempDir(), "routes.json")
	body := `[{"id":"7","name":"Night","stops":[{"booking_id":"x","pickup_lat":1,"pickup_lng":2,"drop_lat":3,"drop_lng":4}],
	"bookings":[{"id":"x","employee_code":"E7"}]}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	require.NoError(t, SeedFromJSON(conn, path))

	r, err := NewSqliteRouteCatalog(conn).GetRoute(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, r.Stops, 1)
	assert.Equal(t, domain.Coordinates{Lon: 4, Lat: 3}, r.Stops[0].Drop())

	assert.Error(t, SeedFromJSON(conn, filepath.Join(t.TempDir(), "missing.json")))
}

func TestSqliteAssignmentStore(t *testing.T) {
	conn := openTestDB(t)
	store := NewSqliteAssignmentStore(conn)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)

	first := domain.AssignmentCommand{
		ID:                 "c1",
		RouteID:            "10",
		VendorID:           "v1",
		SelectedBookingIDs: []string{"b1"},
		PerBookingTime:     map[string]domain.PickupTime{"b1": {Hour: 8, Minute: 45}},
		IssuedAt:           t0,
	}
	second := domain.AssignmentCommand{
		ID:                 "c2",
		RouteID:            "2",
		VendorID:           "v2",
		SelectedBookingIDs: []string{"b5", "b6"},
		PerBookingTime:     map[string]domain.PickupTime{},
		IssuedAt:           t0.Add(time.Minute),
	}
	require.NoError(t, store.Submit(ctx, first))
	require.NoError(t, store.Submit(ctx, second))

	all, err := store.ListCommands(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first, all[0])
	assert.Equal(t, second, all[1])

	only, err := store.ListCommands(ctx, "2")
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "c2", only[0].ID)

	assert.Error(t, store.Submit(ctx, first), "duplicate id")
	assert.Error(t, store.Submit(ctx, domain.AssignmentCommand{}))
}
