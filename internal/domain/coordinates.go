package domain

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API and GeoJSON compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// CoordinatesFromList parses a [lon, lat] pair. ok is false for any other shape.
func CoordinatesFromList(v []float64) (c Coordinates, ok bool) {
	if len(v) < 2 {
		return Coordinates{}, false
	}
	return Coordinates{Lon: v[0], Lat: v[1]}, true
}
