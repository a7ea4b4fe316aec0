package cache

import (
	"encoding/json"
	"fmt"
	"route-board-service/internal/domain"
	"route-board-service/internal/ports"
)

// Stored form of a directions result. Path points are [lon, lat] pairs.
type cachedDirections struct {
	Path            [][]float64 `json:"path"`
	DistanceMeters  int         `json:"distance_meters"`
	DurationSeconds int         `json:"duration_seconds"`
}

func encodeResult(res ports.DirectionsResult) ([]byte, error) {
	cd := cachedDirections{
		Path:            make([][]float64, 0, len(res.Path)),
		DistanceMeters:  res.DistanceMeters,
		DurationSeconds: res.DurationSeconds,
	}
	for _, c := range res.Path {
		cd.Path = append(cd.Path, c.CoordsToList())
	}

	b, err := json.Marshal(cd)
	if err != nil {
		return nil, fmt.Errorf("encode directions: %w", err)
	}
	return b, nil
}

func decodeResult(b []byte) (ports.DirectionsResult, error) {
	var cd cachedDirections
	if err := json.Unmarshal(b, &cd); err != nil {
		return ports.DirectionsResult{}, fmt.Errorf("decode directions: %w", err)
	}

	path := make([]domain.Coordinates, 0, len(cd.Path))
	for i, p := range cd.Path {
		c, ok := domain.CoordinatesFromList(p)
		if !ok {
			return ports.DirectionsResult{}, fmt.Errorf("decode directions: bad point at index %d", i)
		}
		path = append(path, c)
	}

	return ports.DirectionsResult{
		Path:            path,
		DistanceMeters:  cd.DistanceMeters,
		DurationSeconds: cd.DurationSeconds,
	}, nil
}
