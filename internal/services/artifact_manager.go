package services

import (
	"fmt"
	"route-board-service/internal/domain"
	"route-board-service/internal/ports"
	"slices"
)

// ArtifactManager owns the rendered path and stop markers of each active
// route: an arena keyed by route id holding at most one artifact per id.
// Like DirectionsFetcher it relies on the reconciler's lock.
type ArtifactManager struct {
	surface   ports.RenderSurface
	artifacts map[string]domain.RenderArtifact
}

func NewArtifactManager(surface ports.RenderSurface) *ArtifactManager {
	return &ArtifactManager{
		surface:   surface,
		artifacts: make(map[string]domain.RenderArtifact),
	}
}

// Create draws one path and the stop markers for route, replacing any
// artifact already held for the same id. If drawing fails midway, every
// object drawn so far is removed and no artifact is kept.
func (m *ArtifactManager) Create(
	route domain.Route,
	usable []domain.Stop,
	res ports.DirectionsResult,
) (domain.RenderArtifact, error) {
	m.Destroy(route.ID)

	color := domain.Color(route.ID)
	drawn := make([]domain.Handle, 0, 1+2*len(usable))
	rollback := func() {
		for _, h := range drawn {
			m.surface.Remove(h)
		}
	}

	path, err := m.surface.DrawPath(domain.Path{
		RouteID: route.ID,
		Points:  res.Path,
		Color:   color,
	})
	if err != nil {
		return domain.RenderArtifact{}, fmt.Errorf("create artifact route=%s: draw path: %w", route.ID, err)
	}
	drawn = append(drawn, path)

	markers := make([]domain.Handle, 0, 2*len(usable))
	for _, mk := range domain.BuildMarkers(route.ID, usable) {
		h, err := m.surface.PlaceMarker(mk)
		if err != nil {
			rollback()
			return domain.RenderArtifact{}, fmt.Errorf(
				"create artifact route=%s: place %s marker for booking %s: %w",
				route.ID, mk.Shape, mk.BookingID, err,
			)
		}
		drawn = append(drawn, h)
		markers = append(markers, h)
	}

	a := domain.RenderArtifact{
		RouteID: route.ID,
		Color:   color,
		Path:    path,
		Markers: markers,
		Summary: domain.DirectionsSummary{
			DistanceMeters:  res.DistanceMeters,
			DurationSeconds: res.DurationSeconds,
		},
	}
	m.artifacts[route.ID] = a
	return a, nil
}

// Destroy removes the artifact for routeID from the surface. Unknown ids are ignored.
func (m *ArtifactManager) Destroy(routeID string) {
	a, ok := m.artifacts[routeID]
	if !ok {
		return
	}
	m.surface.Remove(a.Path)
	for _, h := range a.Markers {
		m.surface.Remove(h)
	}
	delete(m.artifacts, routeID)
}

func (m *ArtifactManager) DestroyAll() {
	for id := range m.artifacts {
		m.Destroy(id)
	}
}

func (m *ArtifactManager) Has(routeID string) bool {
	_, ok := m.artifacts[routeID]
	return ok
}

func (m *ArtifactManager) Len() int { return len(m.artifacts) }

// Artifacts returns a copy of every held artifact ordered by route id.
func (m *ArtifactManager) Artifacts() []domain.RenderArtifact {
	out := make([]domain.RenderArtifact, 0, len(m.artifacts))
	for _, a := range m.artifacts {
		a.Markers = slices.Clone(a.Markers)
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b domain.RenderArtifact) int {
		if a.RouteID < b.RouteID {
			return -1
		}
		if a.RouteID > b.RouteID {
			return 1
		}
		return 0
	})
	return out
}
