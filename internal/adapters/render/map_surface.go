package render

import (
	"errors"
	"route-board-service/internal/domain"
	"slices"
	"strconv"
	"sync"
)

// MapSurface is an in-memory map layer store. It stands in for the browser
// map: the reconciler draws into it and the API serves it as GeoJSON.
//
// MapSurface is safe for concurrent use.
type MapSurface struct {
	mu      sync.RWMutex
	next    int
	paths   map[domain.Handle]domain.Path
	markers map[domain.Handle]domain.Marker
	order   []domain.Handle
}

func NewMapSurface() *MapSurface {
	return &MapSurface{
		paths:   make(map[domain.Handle]domain.Path),
		markers: make(map[domain.Handle]domain.Marker),
	}
}

func (s *MapSurface) DrawPath(p domain.Path) (domain.Handle, error) {
	if len(p.Points) < 2 {
		return "", errors.New("draw path: a path needs at least 2 points")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.handle("path")
	p.Points = slices.Clone(p.Points)
	s.paths[h] = p
	s.order = append(s.order, h)
	return h, nil
}

func (s *MapSurface) PlaceMarker(m domain.Marker) (domain.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.handle("marker")
	s.markers[h] = m
	s.order = append(s.order, h)
	return h, nil
}

// Remove deletes a drawn object. Unknown handles are ignored.
func (s *MapSurface) Remove(h domain.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, isPath := s.paths[h]
	_, isMarker := s.markers[h]
	if !isPath && !isMarker {
		return
	}
	delete(s.paths, h)
	delete(s.markers, h)
	if i := slices.Index(s.order, h); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

// Counts returns the number of paths and markers currently drawn.
func (s *MapSurface) Counts() (paths, markers int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths), len(s.markers)
}

// Markers returns the markers drawn for routeID in draw order.
func (s *MapSurface) Markers(routeID string) []domain.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Marker
	for _, h := range s.order {
		if m, ok := s.markers[h]; ok && m.RouteID == routeID {
			out = append(out, m)
		}
	}
	return out
}

// Path returns the path drawn for routeID, if any.
func (s *MapSurface) Path(routeID string) (domain.Path, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.order {
		if p, ok := s.paths[h]; ok && p.RouteID == routeID {
			return p, true
		}
	}
	return domain.Path{}, false
}

func (s *MapSurface) handle(kind string) domain.Handle {
	s.next++
	return domain.Handle(kind + "-" + strconv.Itoa(s.next))
}
