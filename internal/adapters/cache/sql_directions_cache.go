package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-board-service/internal/platform/obs"
	"route-board-service/internal/ports"
	"strings"
	"time"
)

// SQLDirectionsCache is a Postgres-backed cache of routed paths keyed by
// request fingerprint. Entries older than TTL are treated as misses; a zero
// TTL keeps entries forever.
type SQLDirectionsCache struct {
	DB  *sql.DB
	TTL time.Duration
	now func() time.Time
}

func NewSQLDirectionsCache(db *sql.DB, ttl time.Duration) *SQLDirectionsCache {
	return &SQLDirectionsCache{DB: db, TTL: ttl, now: time.Now}
}

func (s *SQLDirectionsCache) Get(ctx context.Context, key string) (_ ports.DirectionsResult, _ bool, err error) {
	defer obs.Time(ctx, "directions.cache.Get")(&err)

	if s.DB == nil {
		return ports.DirectionsResult{}, false, errors.New("directions cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return ports.DirectionsResult{}, false, errors.New("get directions cache: key must not be empty")
	}

	q := `
	SELECT payload, created_at
	FROM directions_cache
	WHERE cache_key = $1;
	`

	var payload string
	var createdAt int64
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.DirectionsResult{}, false, nil
	}
	if err != nil {
		return ports.DirectionsResult{}, false, fmt.Errorf("get directions cache: query: %w", err)
	}

	if expired(s.TTL, createdAt, s.now()) {
		return ports.DirectionsResult{}, false, nil
	}

	res, err := decodeResult([]byte(payload))
	if err != nil {
		return ports.DirectionsResult{}, false, fmt.Errorf("get directions cache: %w", err)
	}
	return res, true, nil
}

func (s *SQLDirectionsCache) Put(ctx context.Context, key string, res ports.DirectionsResult) (err error) {
	defer obs.Time(ctx, "directions.cache.Put")(&err)

	if s.DB == nil {
		return errors.New("directions cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("insert directions cache: key must not be empty")
	}

	payload, err := encodeResult(res)
	if err != nil {
		return fmt.Errorf("insert directions cache: %w", err)
	}

	q := `
	INSERT INTO directions_cache (cache_key, payload, distance_meters, duration_seconds, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = EXCLUDED.payload,
		distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		created_at = EXCLUDED.created_at;
	`
	if _, err := s.DB.ExecContext(ctx, q, key, string(payload), res.DistanceMeters, res.DurationSeconds, s.now().Unix()); err != nil {
		return fmt.Errorf("insert directions cache key=%q: %w", key, err)
	}
	return nil
}

func expired(ttl time.Duration, createdAt int64, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(time.Unix(createdAt, 0)) > ttl
}
