package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-board-service/internal/domain"
	"route-board-service/internal/platform/obs"
	"route-board-service/internal/ports"
)

// SQLite-backed implementation of the RouteCatalog port.
type SqliteRouteCatalog struct{ DB *sql.DB }

func NewSqliteRouteCatalog(db *sql.DB) *SqliteRouteCatalog {
	return &SqliteRouteCatalog{DB: db}
}

// Return all routes with their stops and bookings, in seed order.
func (s *SqliteRouteCatalog) ListRoutes(ctx context.Context) (_ []domain.Route, err error) {
	defer obs.Time(ctx, "catalog.ListRoutes")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite route catalog: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT
		route_id,
		name,
		est_distance_meters,
		est_duration_seconds
	FROM routes
	ORDER BY position, route_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]domain.Route, 0, 32)
	index := map[string]int{}
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("list routes: %w", err)
		}
		index[r.ID] = len(routes)
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	stops, err := s.loadStops(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	bookings, err := s.loadBookings(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}

	for id, i := range index {
		routes[i].Stops = stops[id]
		routes[i].Bookings = bookings[id]
	}

	return routes, nil
}

// Return one route, or ports.ErrRouteNotFound.
func (s *SqliteRouteCatalog) GetRoute(ctx context.Context, id string) (_ domain.Route, err error) {
	defer obs.Time(ctx, "catalog.GetRoute")(&err)

	if s.DB == nil {
		return domain.Route{}, errors.New("sqlite route catalog: DB is nil")
	}

	row := s.DB.QueryRowContext(ctx, `
	SELECT
		route_id,
		name,
		est_distance_meters,
		est_duration_seconds
	FROM routes
	WHERE route_id = ?;
	`, id)

	r, err := scanRoute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, fmt.Errorf("get route %q: %w", id, ports.ErrRouteNotFound)
	}
	if err != nil {
		return domain.Route{}, fmt.Errorf("get route %q: %w", id, err)
	}

	stops, err := s.loadStops(ctx, id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("get route %q: %w", id, err)
	}
	bookings, err := s.loadBookings(ctx, id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("get route %q: %w", id, err)
	}
	r.Stops = stops[id]
	r.Bookings = bookings[id]

	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoute(sc scanner) (domain.Route, error) {
	var r domain.Route
	var meters, seconds sql.NullInt64
	if err := sc.Scan(&r.ID, &r.Name, &meters, &seconds); err != nil {
		return domain.Route{}, err
	}
	if meters.Valid || seconds.Valid {
		r.Estimations = &domain.Estimations{
			DistanceMeters:  int(meters.Int64),
			DurationSeconds: int(seconds.Int64),
		}
	}
	return r, nil
}

// loadStops returns stops grouped by route id. An empty routeID loads all.
func (s *SqliteRouteCatalog) loadStops(ctx context.Context, routeID string) (map[string][]domain.Stop, error) {
	rows, err := s.DB.QueryContext(ctx, `
	SELECT route_id, booking_id, pickup_lat, pickup_lng, drop_lat, drop_lng
	FROM route_stops
	WHERE ? = '' OR route_id = ?
	ORDER BY route_id, position;
	`, routeID, routeID)
	if err != nil {
		return nil, fmt.Errorf("query route_stops table: %w", err)
	}
	defer rows.Close()

	out := map[string][]domain.Stop{}
	for rows.Next() {
		var rid string
		var st domain.Stop
		var pLat, pLng, dLat, dLng sql.NullFloat64
		if err := rows.Scan(&rid, &st.BookingID, &pLat, &pLng, &dLat, &dLng); err != nil {
			return nil, fmt.Errorf("scan stop row: %w", err)
		}
		st.PickupLat = nullFloat(pLat)
		st.PickupLng = nullFloat(pLng)
		st.DropLat = nullFloat(dLat)
		st.DropLng = nullFloat(dLng)
		out[rid] = append(out[rid], st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stop row iteration: %w", err)
	}
	return out, nil
}

func (s *SqliteRouteCatalog) loadBookings(ctx context.Context, routeID string) (map[string][]domain.Booking, error) {
	rows, err := s.DB.QueryContext(ctx, `
	SELECT route_id, booking_id, employee_code, pickup_location, gender, shift_time
	FROM route_bookings
	WHERE ? = '' OR route_id = ?
	ORDER BY route_id, position;
	`, routeID, routeID)
	if err != nil {
		return nil, fmt.Errorf("query route_bookings table: %w", err)
	}
	defer rows.Close()

	out := map[string][]domain.Booking{}
	for rows.Next() {
		var rid string
		var b domain.Booking
		if err := rows.Scan(&rid, &b.ID, &b.EmployeeCode, &b.PickupLocation, &b.Gender, &b.ShiftTime); err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		out[rid] = append(out[rid], b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking row iteration: %w", err)
	}
	return out, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
