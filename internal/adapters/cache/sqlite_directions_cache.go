package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-board-service/internal/ports"
	"strings"
	"time"
)

// SQLite backed directions cache for local runs. Same semantics as
// SQLDirectionsCache.
type SqliteDirectionsCache struct {
	DB  *sql.DB
	TTL time.Duration
	now func() time.Time
}

func NewSqliteDirectionsCache(db *sql.DB, ttl time.Duration) *SqliteDirectionsCache {
	return &SqliteDirectionsCache{DB: db, TTL: ttl, now: time.Now}
}

func (s *SqliteDirectionsCache) Get(ctx context.Context, key string) (ports.DirectionsResult, bool, error) {
	if s.DB == nil {
		return ports.DirectionsResult{}, false, errors.New("directions cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return ports.DirectionsResult{}, false, errors.New("get directions cache: key must not be empty")
	}

	var payload string
	var createdAt int64
	err := s.DB.QueryRowContext(ctx, `
	SELECT payload, created_at
	FROM directions_cache
	WHERE cache_key = ?;
	`, key).Scan(&payload, &createdAt)
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

func (s *SqliteDirectionsCache) Put(ctx context.Context, key string, res ports.DirectionsResult) error {
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

	if _, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO directions_cache (
		cache_key,
		payload,
		distance_meters,
		duration_seconds,
		created_at
	)
	VALUES (?, ?, ?, ?, ?)
	`, key, string(payload), res.DistanceMeters, res.DurationSeconds, s.now().Unix()); err != nil {
		return fmt.Errorf("insert directions cache key=%q: %w", key, err)
	}
	return nil
}
