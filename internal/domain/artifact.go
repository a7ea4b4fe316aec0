package domain

import "strconv"

// Handle identifies one object drawn on the render surface.
type Handle string

type MarkerShape string

const (
	MarkerPickup MarkerShape = "pickup"
	MarkerDrop   MarkerShape = "drop"
)

// Marker is a point drawn for one end of a stop. Pickup markers are labeled
// P1..Pn in stop order; drop markers carry no label and a distinct shape.
type Marker struct {
	RouteID   string
	BookingID string
	Position  Coordinates
	Shape     MarkerShape
	Label     string
	Color     string
}

// Path is the styled polyline drawn for a route.
type Path struct {
	RouteID string
	Points  []Coordinates
	Color   string
}

// DirectionsSummary carries the totals returned with a routed path.
type DirectionsSummary struct {
	DistanceMeters  int
	DurationSeconds int
}

// RenderArtifact is the visual representation of one route on the map
// surface. At most one exists per route id.
type RenderArtifact struct {
	RouteID string
	Color   string
	Path    Handle
	Markers []Handle
	Summary DirectionsSummary
}

// BuildMarkers returns a pickup and a drop marker for each usable stop in
// stop order.
func BuildMarkers(routeID string, stops []Stop) []Marker {
	color := Color(routeID)
	markers := make([]Marker, 0, 2*len(stops))
	for i, s := range stops {
		markers = append(markers,
			Marker{
				RouteID:   routeID,
				BookingID: s.BookingID,
				Position:  s.Pickup(),
				Shape:     MarkerPickup,
				Label:     "P" + strconv.Itoa(i+1),
				Color:     color,
			},
			Marker{
				RouteID:   routeID,
				BookingID: s.BookingID,
				Position:  s.Drop(),
				Shape:     MarkerDrop,
				Color:     color,
			},
		)
	}
	return markers
}
