package directions

import (
	"context"
	"errors"
	"math"
	"route-board-service/internal/domain"
	"route-board-service/internal/ports"
)

const earthRadiusMeters = 6371000.0

// StraightLineProvider is an offline DirectionsService that joins the
// requested points with straight segments. Duration assumes SpeedMPS.
// It is used for local runs without an ORS key and in tests.
type StraightLineProvider struct {
	SpeedMPS float64
}

func NewStraightLineProvider() *StraightLineProvider {
	return &StraightLineProvider{SpeedMPS: 10}
}

func (p *StraightLineProvider) Route(ctx context.Context, req ports.DirectionsRequest) (ports.DirectionsResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.DirectionsResult{}, err
	}
	if req.Alternatives {
		return ports.DirectionsResult{}, errors.New("straight line: route alternatives are not supported")
	}

	path := make([]domain.Coordinates, 0, 2+len(req.Waypoints))
	path = append(path, req.Origin)
	path = append(path, req.Waypoints...)
	path = append(path, req.Destination)

	meters := 0.0
	for i := 1; i < len(path); i++ {
		meters += haversine(path[i-1], path[i])
	}

	speed := p.SpeedMPS
	if speed <= 0 {
		speed = 10
	}

	return ports.DirectionsResult{
		Path:            path,
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: int(math.Round(meters / speed)),
	}, nil
}

func haversine(a, b domain.Coordinates) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
