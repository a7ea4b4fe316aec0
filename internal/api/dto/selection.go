package dto

type SetRoutesRequest struct {
	RouteIDs []string `json:"route_ids"`
}

type SelectBookingsRequest struct {
	BookingIDs []string `json:"booking_ids"`
}

type PreferencesRequest struct {
	PreferLocalRoads *bool `json:"prefer_local_roads"`
}

type SelectionResponse struct {
	RouteIDs         []string `json:"route_ids"`
	BookingIDs       []string `json:"booking_ids"`
	PendingRouteIDs  []string `json:"pending_route_ids"`
	RenderedRouteIDs []string `json:"rendered_route_ids"`
	PreferLocalRoads bool     `json:"prefer_local_roads"`
}

type ArtifactResponse struct {
	RouteID         string `json:"route_id"`
	Color           string `json:"color"`
	Markers         int    `json:"markers"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
}

type ListArtifactResponse struct {
	Artifacts []ArtifactResponse `json:"artifacts"`
}
