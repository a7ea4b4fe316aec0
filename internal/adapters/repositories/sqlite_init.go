package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		route_id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		est_distance_meters INTEGER,
		est_duration_seconds INTEGER
	);
	`

	createStopsQuery := `
	CREATE TABLE IF NOT EXISTS route_stops (
		route_id TEXT NOT NULL REFERENCES routes(route_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		booking_id TEXT NOT NULL,
		pickup_lat REAL,
		pickup_lng REAL,
		drop_lat REAL,
		drop_lng REAL,
		PRIMARY KEY (route_id, position)
	);
	`

	createBookingsQuery := `
	CREATE TABLE IF NOT EXISTS route_bookings (
		route_id TEXT NOT NULL REFERENCES routes(route_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		booking_id TEXT NOT NULL,
		employee_code TEXT NOT NULL DEFAULT '',
		pickup_location TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		shift_time TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (route_id, position)
	);
	`

	createDirectionsCacheQuery := `
	CREATE TABLE IF NOT EXISTS directions_cache (
		cache_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		distance_meters INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	`

	createCommandsQuery := `
	CREATE TABLE IF NOT EXISTS assignment_commands (
		command_id TEXT PRIMARY KEY,
		route_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		issued_at INTEGER NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_assignment_commands_route_issued
	ON assignment_commands(route_id, issued_at);
	`

	statements := []string{
		createRoutesQuery,
		createStopsQuery,
		createBookingsQuery,
		createDirectionsCacheQuery,
		createCommandsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type StopSeed struct {
	BookingID string   `json:"booking_id"`
	PickupLat *float64 `json:"pickup_lat"`
	PickupLng *float64 `json:"pickup_lng"`
	DropLat   *float64 `json:"drop_lat"`
	DropLng   *float64 `json:"drop_lng"`
}

type BookingSeed struct {
	ID             string `json:"id"`
	EmployeeCode   string `json:"employee_code"`
	PickupLocation string `json:"pickup_location"`
	Gender         string `json:"gender"`
	ShiftTime      string `json:"shift_time"`
}

type RouteSeed struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	EstDistanceMeters  *int          `json:"est_distance_meters"`
	EstDurationSeconds *int          `json:"est_duration_seconds"`
	Stops              []StopSeed    `json:"stops"`
	Bookings           []BookingSeed `json:"bookings"`
}

// Populate the database with route data from a JSON file. Seeding is
// idempotent: each seeded route fully replaces any existing row with its id.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed routes: read %q: %w", jsonPath, err)
	}

	var data []RouteSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed routes: parse json: %w", err)
	}

	return SeedRoutes(db, data)
}

// SeedRoutes validates and writes routes in one transaction.
func SeedRoutes(db *sql.DB, data []RouteSeed) error {
	if db == nil {
		return errors.New("seed routes: DB is nil")
	}

	seen := make(map[string]struct{}, len(data))
	for i, r := range data {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return fmt.Errorf("seed routes: route at index %d: id cannot be empty", i+1)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("seed routes: duplicate route id %q", id)
		}
		seen[id] = struct{}{}

		for j, b := range r.Bookings {
			if strings.TrimSpace(b.ID) == "" {
				return fmt.Errorf("seed routes: route %q booking at index %d: id cannot be empty", id, j+1)
			}
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed routes: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, del := range []string{
		`DELETE FROM route_stops WHERE route_id = ?;`,
		`DELETE FROM route_bookings WHERE route_id = ?;`,
	} {
		for _, r := range data {
			if _, err := tx.Exec(del, strings.TrimSpace(r.ID)); err != nil {
				return fmt.Errorf("seed routes: clear route %q: %w", r.ID, err)
			}
		}
	}

	routeStmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO routes (
		route_id,
		position,
		name,
		est_distance_meters,
		est_duration_seconds
	)
	VALUES (?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed routes: prepare route insert: %w", err)
	}
	defer routeStmt.Close()

	stopStmt, err := tx.Prepare(`
	INSERT INTO route_stops (route_id, position, booking_id, pickup_lat, pickup_lng, drop_lat, drop_lng)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed routes: prepare stop insert: %w", err)
	}
	defer stopStmt.Close()

	bookingStmt, err := tx.Prepare(`
	INSERT INTO route_bookings (route_id, position, booking_id, employee_code, pickup_location, gender, shift_time)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed routes: prepare booking insert: %w", err)
	}
	defer bookingStmt.Close()

	for i, r := range data {
		id := strings.TrimSpace(r.ID)
		if _, err := routeStmt.Exec(id, i, r.Name, r.EstDistanceMeters, r.EstDurationSeconds); err != nil {
			return fmt.Errorf("seed routes: insert route_id=%s: %w", id, err)
		}
		for j, s := range r.Stops {
			if _, err := stopStmt.Exec(id, j, s.BookingID, s.PickupLat, s.PickupLng, s.DropLat, s.DropLng); err != nil {
				return fmt.Errorf("seed routes: insert stop route_id=%s position=%d: %w", id, j, err)
			}
		}
		for j, b := range r.Bookings {
			if _, err := bookingStmt.Exec(id, j, b.ID, b.EmployeeCode, b.PickupLocation, b.Gender, b.ShiftTime); err != nil {
				return fmt.Errorf("seed routes: insert booking route_id=%s booking_id=%s: %w", id, b.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed routes: commit tx: %w", err)
	}

	return nil
}
