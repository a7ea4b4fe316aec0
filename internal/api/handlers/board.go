package handlers

import (
	"net/http"
	"route-board-service/internal/adapters/render"
	"route-board-service/internal/api/dto"
	"route-board-service/internal/services"
)

// MapSource produces the current map drawing.
type MapSource interface {
	GeoJSON() render.FeatureCollection
}

// BoardHandler exposes the route board: route and booking selection, the
// local-roads preference and the rendered map.
type BoardHandler struct {
	Board *services.RouteBoard
	Map   MapSource
}

func (h *BoardHandler) Selection(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	h.writeSelection(w, r)
}

// SetRoutes replaces the route selection.
func (h *BoardHandler) SetRoutes(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPut) {
		return
	}

	var req dto.SetRoutesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := h.Board.SetRoutes(r.Context(), req.RouteIDs); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeSelection(w, r)
}

func (h *BoardHandler) ToggleRoute(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if _, err := h.Board.ToggleRoute(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeSelection(w, r)
}

func (h *BoardHandler) SelectAllRoutes(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if _, err := h.Board.SelectAllRoutes(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeSelection(w, r)
}

func (h *BoardHandler) ToggleBooking(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	h.Board.ToggleBooking(r.PathValue("id"))
	h.writeSelection(w, r)
}

// SelectAllBookings applies the binary select-all over the posted ids.
func (h *BoardHandler) SelectAllBookings(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req dto.SelectBookingsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.Board.SelectAllBookings(req.BookingIDs)
	h.writeSelection(w, r)
}

func (h *BoardHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPut) {
		return
	}

	var req dto.PreferencesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PreferLocalRoads == nil {
		writeError(w, r, http.StatusBadRequest, "prefer_local_roads is required")
		return
	}
	h.Board.SetPreferLocalRoads(*req.PreferLocalRoads)
	h.writeSelection(w, r)
}

// Disable tears down every rendered route while keeping the selection.
func (h *BoardHandler) Disable(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	h.Board.Disable()
	h.writeSelection(w, r)
}

func (h *BoardHandler) Enable(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if err := h.Board.Enable(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeSelection(w, r)
}

func (h *BoardHandler) Artifacts(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	snap := h.Board.Reconciler.Snapshot()
	res := dto.ListArtifactResponse{Artifacts: make([]dto.ArtifactResponse, 0, len(snap.Artifacts))}
	for _, a := range snap.Artifacts {
		res.Artifacts = append(res.Artifacts, dto.ArtifactResponse{
			RouteID:         a.RouteID,
			Color:           a.Color,
			Markers:         len(a.Markers),
			DistanceMeters:  a.Summary.DistanceMeters,
			DurationSeconds: a.Summary.DurationSeconds,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Map serves the rendered surface as GeoJSON.
func (h *BoardHandler) Map(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, h.Map.GeoJSON())
}

func (h *BoardHandler) writeSelection(w http.ResponseWriter, r *http.Request) {
	snap := h.Board.Reconciler.Snapshot()
	rendered := make([]string, 0, len(snap.Artifacts))
	for _, a := range snap.Artifacts {
		rendered = append(rendered, a.RouteID)
	}

	writeJSON(w, r, http.StatusOK, dto.SelectionResponse{
		RouteIDs:         h.Board.Selection.RouteIDs(),
		BookingIDs:       h.Board.Selection.BookingIDs(),
		PendingRouteIDs:  snap.Pending,
		RenderedRouteIDs: rendered,
		PreferLocalRoads: snap.PreferLocalRoads,
	})
}
