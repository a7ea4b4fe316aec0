package domain

import "time"

type TimeField string

const (
	FieldHour   TimeField = "hour"
	FieldMinute TimeField = "minute"
)

// PickupTime is an operator-chosen pickup time of day for one booking.
type PickupTime struct {
	Hour   int
	Minute int
}

// AssignmentCommand is the single structured command emitted when an
// assignment session is saved. It is handed to an external collaborator;
// this system never applies it to routes itself.
type AssignmentCommand struct {
	ID                 string
	RouteID            string
	VendorID           string
	SelectedBookingIDs []string
	PerBookingTime     map[string]PickupTime
	IssuedAt           time.Time
}
