package api

import (
	"context"
	"net/http"
	"route-board-service/internal/api/handlers"
	"route-board-service/internal/ports"
	"route-board-service/internal/services"

	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP layer needs. History, Metrics and
// Ping are optional.
type Deps struct {
	Catalog ports.RouteCatalog
	Board   *services.RouteBoard
	Desk    *services.AssignmentDesk
	Map     handlers.MapSource
	History ports.AssignmentHistory
	Metrics http.Handler
	Ping    func(ctx context.Context) error
	Log     zerolog.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{Catalog: d.Catalog, Selection: d.Board.Selection}
	boardHandler := &handlers.BoardHandler{Board: d.Board, Map: d.Map}
	assignHandler := &handlers.AssignmentHandler{Desk: d.Desk, History: d.History}

	healthHandler := &handlers.HealthHandler{Ping: d.Ping}

	mux.HandleFunc("/health", healthHandler.Health)

	mux.HandleFunc("/routes", routeHandler.List)
	mux.HandleFunc("/routes/{id}", routeHandler.Get)

	mux.HandleFunc("/selection", boardHandler.Selection)
	mux.HandleFunc("/selection/routes", boardHandler.SetRoutes)
	mux.HandleFunc("/selection/routes/all", boardHandler.SelectAllRoutes)
	mux.HandleFunc("/selection/routes/{id}/toggle", boardHandler.ToggleRoute)
	mux.HandleFunc("/selection/bookings/all", boardHandler.SelectAllBookings)
	mux.HandleFunc("/selection/bookings/{id}/toggle", boardHandler.ToggleBooking)
	mux.HandleFunc("/directions/preferences", boardHandler.Preferences)
	mux.HandleFunc("/board/disable", boardHandler.Disable)
	mux.HandleFunc("/board/enable", boardHandler.Enable)
	mux.HandleFunc("/artifacts", boardHandler.Artifacts)
	mux.HandleFunc("/map", boardHandler.Map)

	mux.HandleFunc("/assignment", assignHandler.Get)
	mux.HandleFunc("/assignment/open", assignHandler.Open)
	mux.HandleFunc("/assignment/rows/all", assignHandler.SelectAll)
	mux.HandleFunc("/assignment/rows/{id}/toggle", assignHandler.ToggleRow)
	mux.HandleFunc("/assignment/rows/{id}/time", assignHandler.SetTime)
	mux.HandleFunc("/assignment/vendor", assignHandler.SetVendor)
	mux.HandleFunc("/assignment/save", assignHandler.Save)
	mux.HandleFunc("/assignment/cancel", assignHandler.Cancel)
	mux.HandleFunc("/assignment/commands", assignHandler.Commands)

	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics)
	}

	return loggingMiddleware(d.Log, mux)
}
