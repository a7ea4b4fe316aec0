package domain

import "errors"

// ErrInsufficientStops is returned when a route has fewer than two usable
// points. It is a skip, not a failure: the route only becomes fetchable once
// the upstream data gains valid coordinates.
var ErrInsufficientStops = errors.New("route has fewer than 2 geocoded points")

// UsableStops returns the stops with all four coordinates present, in order.
func UsableStops(stops []Stop) []Stop {
	out := make([]Stop, 0, len(stops))
	for _, s := range stops {
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}

// FlattenPoints expands usable stops into [pickup1, drop1, pickup2, drop2, ...].
func FlattenPoints(stops []Stop) []Coordinates {
	points := make([]Coordinates, 0, 2*len(stops))
	for _, s := range stops {
		points = append(points, s.Pickup(), s.Drop())
	}
	return points
}

// Leg is the origin/destination/waypoints split sent to a routing service.
// Waypoints keep stop order; nothing is reordered or optimized.
type Leg struct {
	Origin      Coordinates
	Destination Coordinates
	Waypoints   []Coordinates
}

// BuildLeg splits flattened points into a Leg.
func BuildLeg(points []Coordinates) (Leg, error) {
	if len(points) < 2 {
		return Leg{}, ErrInsufficientStops
	}

	interior := make([]Coordinates, len(points)-2)
	copy(interior, points[1:len(points)-1])

	return Leg{
		Origin:      points[0],
		Destination: points[len(points)-1],
		Waypoints:   interior,
	}, nil
}
