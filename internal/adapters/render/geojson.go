package render

// GeoJSON shapes served to the map client.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// GeoJSON renders every drawn object as a FeatureCollection: a LineString per
// path followed by a Point per marker, in draw order.
func (s *MapSurface) GeoJSON() FeatureCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(s.order))}
	for _, h := range s.order {
		if p, ok := s.paths[h]; ok {
			line := make([][]float64, 0, len(p.Points))
			for _, c := range p.Points {
				line = append(line, c.CoordsToList())
			}
			fc.Features = append(fc.Features, Feature{
				Type:     "Feature",
				Geometry: Geometry{Type: "LineString", Coordinates: line},
				Properties: map[string]any{
					"kind":     "path",
					"handle":   string(h),
					"route_id": p.RouteID,
					"color":    p.Color,
				},
			})
			continue
		}

		m := s.markers[h]
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "Point", Coordinates: m.Position.CoordsToList()},
			Properties: map[string]any{
				"kind":       "marker",
				"handle":     string(h),
				"route_id":   m.RouteID,
				"booking_id": m.BookingID,
				"shape":      string(m.Shape),
				"label":      m.Label,
				"color":      m.Color,
			},
		})
	}
	return fc
}
