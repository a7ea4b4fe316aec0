package repositories

import (
	"encoding/json"
	"fmt"
	"route-board-service/internal/domain"
)

type pickupTimeJSON struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Stored body of an assignment command; id, route, vendor and time live in
// their own columns.
type commandPayload struct {
	SelectedBookingIDs []string                  `json:"selected_booking_ids"`
	PerBookingTime     map[string]pickupTimeJSON `json:"per_booking_time"`
}

func encodeCommand(cmd domain.AssignmentCommand) (string, error) {
	p := commandPayload{
		SelectedBookingIDs: cmd.SelectedBookingIDs,
		PerBookingTime:     make(map[string]pickupTimeJSON, len(cmd.PerBookingTime)),
	}
	if p.SelectedBookingIDs == nil {
		p.SelectedBookingIDs = []string{}
	}
	for id, t := range cmd.PerBookingTime {
		p.PerBookingTime[id] = pickupTimeJSON{Hour: t.Hour, Minute: t.Minute}
	}

	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode command %s: %w", cmd.ID, err)
	}
	return string(b), nil
}

func decodeCommand(cmd *domain.AssignmentCommand, payload string) error {
	var p commandPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("decode command %s: %w", cmd.ID, err)
	}

	cmd.SelectedBookingIDs = p.SelectedBookingIDs
	cmd.PerBookingTime = make(map[string]domain.PickupTime, len(p.PerBookingTime))
	for id, t := range p.PerBookingTime {
		cmd.PerBookingTime[id] = domain.PickupTime{Hour: t.Hour, Minute: t.Minute}
	}
	return nil
}
