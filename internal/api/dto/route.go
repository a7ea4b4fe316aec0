package dto

type CoordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type StopResponse struct {
	BookingID string               `json:"booking_id"`
	Pickup    *CoordinatesResponse `json:"pickup"`
	Drop      *CoordinatesResponse `json:"drop"`
}

type BookingResponse struct {
	ID             string `json:"id"`
	EmployeeCode   string `json:"employee_code"`
	PickupLocation string `json:"pickup_location"`
	Gender         string `json:"gender"`
	ShiftTime      string `json:"shift_time"`
}

type EstimationsResponse struct {
	DistanceMeters  int `json:"distance_meters"`
	DurationSeconds int `json:"duration_seconds"`
}

type RouteResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Color       string               `json:"color"`
	Selected    bool                 `json:"selected"`
	Estimations *EstimationsResponse `json:"estimations,omitempty"`
	Stops       []StopResponse       `json:"stops"`
	Bookings    []BookingResponse    `json:"bookings"`
}

type ListRouteResponse struct {
	Routes []RouteResponse `json:"routes"`
}
