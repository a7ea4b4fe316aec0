package handlers

import (
	"net/http"
	"route-board-service/internal/api/dto"
	"route-board-service/internal/domain"
	"route-board-service/internal/ports"
	"route-board-service/internal/services"
	"slices"
)

type RouteHandler struct {
	Catalog   ports.RouteCatalog
	Selection *services.SelectionStore
}

// List returns every catalog route with its stops, bookings and palette color.
func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	routes, err := h.Catalog.ListRoutes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	selected := h.Selection.RouteIDs()
	res := dto.ListRouteResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, rt := range routes {
		res.Routes = append(res.Routes, toRouteResponse(rt, slices.Contains(selected, rt.ID)))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Get returns a single route.
func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	rt, err := h.Catalog.GetRoute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toRouteResponse(rt, slices.Contains(h.Selection.RouteIDs(), rt.ID)))
}

func toRouteResponse(rt domain.Route, selected bool) dto.RouteResponse {
	res := dto.RouteResponse{
		ID:       rt.ID,
		Name:     rt.Name,
		Color:    domain.Color(rt.ID),
		Selected: selected,
		Stops:    make([]dto.StopResponse, 0, len(rt.Stops)),
		Bookings: make([]dto.BookingResponse, 0, len(rt.Bookings)),
	}
	if rt.Estimations != nil {
		res.Estimations = &dto.EstimationsResponse{
			DistanceMeters:  rt.Estimations.DistanceMeters,
			DurationSeconds: rt.Estimations.DurationSeconds,
		}
	}

	for _, s := range rt.Stops {
		stop := dto.StopResponse{BookingID: s.BookingID}
		if s.PickupLat != nil && s.PickupLng != nil {
			stop.Pickup = &dto.CoordinatesResponse{Lat: *s.PickupLat, Lng: *s.PickupLng}
		}
		if s.DropLat != nil && s.DropLng != nil {
			stop.Drop = &dto.CoordinatesResponse{Lat: *s.DropLat, Lng: *s.DropLng}
		}
		res.Stops = append(res.Stops, stop)
	}

	for _, b := range rt.Bookings {
		res.Bookings = append(res.Bookings, dto.BookingResponse{
			ID:             b.ID,
			EmployeeCode:   b.EmployeeCode,
			PickupLocation: b.PickupLocation,
			Gender:         b.Gender,
			ShiftTime:      b.ShiftTime,
		})
	}
	return res
}
