package ports

import "route-board-service/internal/domain"

// Port: the map-rendering collaborator. Calls are synchronous and cheap; the
// surface owns the drawn objects until Remove is called with their handle.
type RenderSurface interface {
	DrawPath(p domain.Path) (domain.Handle, error)
	PlaceMarker(m domain.Marker) (domain.Handle, error)
	Remove(h domain.Handle)
}
