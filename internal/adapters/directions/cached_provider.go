package directions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"route-board-service/internal/ports"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// CachedProvider puts a persistent DirectionsCache in front of another
// DirectionsService. Identical requests in flight at the same time share one
// upstream call, which runs detached from any single caller's cancellation;
// each caller still stops waiting when its own context ends. Cache failures
// are logged and never fail a request.
type CachedProvider struct {
	next  ports.DirectionsService
	cache ports.DirectionsCache
	group singleflight.Group
}

func NewCachedProvider(next ports.DirectionsService, cache ports.DirectionsCache) *CachedProvider {
	return &CachedProvider{next: next, cache: cache}
}

func (c *CachedProvider) Route(ctx context.Context, req ports.DirectionsRequest) (ports.DirectionsResult, error) {
	key := Fingerprint(req)
	logger := zerolog.Ctx(ctx)

	if hit, ok, err := c.cache.Get(ctx, key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("directions cache read failed")
	} else if ok {
		return hit, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Outlives any single caller; callers stop waiting on their own ctx.
		shared := context.WithoutCancel(ctx)
		res, err := c.next.Route(shared, req)
		if err != nil {
			return ports.DirectionsResult{}, err
		}
		if err := c.cache.Put(shared, key, res); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("directions cache write failed")
		}
		return res, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return ports.DirectionsResult{}, r.Err
		}
		return r.Val.(ports.DirectionsResult), nil
	case <-ctx.Done():
		return ports.DirectionsResult{}, ctx.Err()
	}
}

// Fingerprint derives a stable cache key from a request. Coordinates are
// rounded to 6 decimals (~0.1m) so float noise does not split the cache.
func Fingerprint(req ports.DirectionsRequest) string {
	var b strings.Builder
	write := func(lon, lat float64) {
		b.WriteString(strconv.FormatFloat(lon, 'f', 6, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(lat, 'f', 6, 64))
		b.WriteByte(';')
	}

	write(req.Origin.Lon, req.Origin.Lat)
	for _, w := range req.Waypoints {
		write(w.Lon, w.Lat)
	}
	write(req.Destination.Lon, req.Destination.Lat)
	fmt.Fprintf(&b, "hw=%t;toll=%t;alt=%t", req.AvoidHighways, req.AvoidTolls, req.Alternatives)

	sum := sha256.Sum256([]byte(b.String()))
	return "dir:" + hex.EncodeToString(sum[:])
}
