package dto

import "time"

type OpenAssignmentRequest struct {
	RouteID string `json:"route_id"`
}

type SetTimeRequest struct {
	Field string `json:"field"`
	Value *int   `json:"value"`
}

type SetVendorRequest struct {
	VendorID string `json:"vendor_id"`
}

type PickupTimeResponse struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type AssignmentResponse struct {
	State              string                        `json:"state"`
	RouteID            string                        `json:"route_id,omitempty"`
	SelectedBookingIDs []string                      `json:"selected_booking_ids"`
	VendorID           string                        `json:"vendor_id"`
	PerBookingTime     map[string]PickupTimeResponse `json:"per_booking_time"`
	CanSave            bool                          `json:"can_save"`
	SaveBlocker        string                        `json:"save_blocker,omitempty"`
}

type SaveAssignmentResponse struct {
	Saved bool `json:"saved"`
}

type CommandResponse struct {
	ID                 string                        `json:"id"`
	RouteID            string                        `json:"route_id"`
	VendorID           string                        `json:"vendor_id"`
	SelectedBookingIDs []string                      `json:"selected_booking_ids"`
	PerBookingTime     map[string]PickupTimeResponse `json:"per_booking_time"`
	IssuedAt           time.Time                     `json:"issued_at"`
}

type ListCommandResponse struct {
	Commands []CommandResponse `json:"commands"`
}
