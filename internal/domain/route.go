package domain

// Represents a planned trip grouping one or more bookings with ordered
// pickup/drop stops. Routes are sourced from the route catalog and are
// read-only for the rest of the system.
type Route struct {
	ID          string
	Name        string
	Stops       []Stop
	Bookings    []Booking
	Estimations *Estimations
}

// Represents one booking's pickup and drop coordinate pair within a route.
// A nil coordinate means the booking was never geocoded.
type Stop struct {
	BookingID string
	PickupLat *float64
	PickupLng *float64
	DropLat   *float64
	DropLng   *float64
}

// Valid reports whether all four coordinates are present.
func (s Stop) Valid() bool {
	return s.PickupLat != nil && s.PickupLng != nil && s.DropLat != nil && s.DropLng != nil
}

func (s Stop) Pickup() Coordinates {
	return Coordinates{Lon: *s.PickupLng, Lat: *s.PickupLat}
}

func (s Stop) Drop() Coordinates {
	return Coordinates{Lon: *s.DropLng, Lat: *s.DropLat}
}

// A single passenger trip request carried by a route.
type Booking struct {
	ID             string
	EmployeeCode   string
	PickupLocation string
	Gender         string
	ShiftTime      string
}

// Planner-side estimates attached to a route by the catalog.
type Estimations struct {
	DistanceMeters  int
	DurationSeconds int
}

// BookingIDs returns the ids of every booking on the route in catalog order.
func (r Route) BookingIDs() []string {
	ids := make([]string, 0, len(r.Bookings))
	for _, b := range r.Bookings {
		ids = append(ids, b.ID)
	}
	return ids
}

// HasBooking reports whether id belongs to one of the route's bookings.
func (r Route) HasBooking(id string) bool {
	for _, b := range r.Bookings {
		if b.ID == id {
			return true
		}
	}
	return false
}
