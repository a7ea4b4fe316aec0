package render

import (
	"route-board-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSurfaceDrawAndRemove(t *testing.T) {
	s := NewMapSurface()

	path, err := s.DrawPath(domain.Path{
		RouteID: "1",
		Color:   domain.Color("1"),
		Points:  []domain.Coordinates{{Lon: 1, Lat: 2}, {Lon: 3, Lat: 4}},
	})
	require.NoError(t, err)

	marker, err := s.PlaceMarker(domain.Marker{RouteID: "1", Shape: domain.MarkerPickup, Label: "P1"})
	require.NoError(t, err)
	assert.NotEqual(t, path, marker)

	paths, markers := s.Counts()
	assert.Equal(t, 1, paths)
	assert.Equal(t, 1, markers)

	s.Remove(path)
	s.Remove(marker)
	s.Remove("missing")

	paths, markers = s.Counts()
	assert.Zero(t, paths)
	assert.Zero(t, markers)
	assert.Empty(t, s.GeoJSON().Features)
}

func TestMapSurfaceRejectsDegeneratePath(t *testing.T) {
	s := NewMapSurface()
	_, err := s.DrawPath(domain.Path{RouteID: "1", Points: []domain.Coordinates{{Lon: 1, Lat: 1}}})
	assert.Error(t, err)
}

func TestMapSurfaceGeoJSON(t *testing.T) {
	s := NewMapSurface()
	_, err := s.DrawPath(domain.Path{
		RouteID: "9",
		Color:   "#fff",
		Points:  []domain.Coordinates{{Lon: 1, Lat: 2}, {Lon: 3, Lat: 4}},
	})
	require.NoError(t, err)
	_, err = s.PlaceMarker(domain.Marker{
		RouteID:   "9",
		BookingID: "b1",
		Position:  domain.Coordinates{Lon: 1, Lat: 2},
		Shape:     domain.MarkerDrop,
		Color:     "#fff",
	})
	require.NoError(t, err)

	fc := s.GeoJSON()
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.Type)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "Point", fc.Features[1].Geometry.Type)
	assert.Equal(t, "drop", fc.Features[1].Properties["shape"])
	assert.Equal(t, "b1", fc.Features[1].Properties["booking_id"])
}
