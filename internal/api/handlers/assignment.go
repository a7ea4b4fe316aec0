package handlers

import (
	"net/http"
	"route-board-service/internal/api/dto"
	"route-board-service/internal/domain"
	"route-board-service/internal/ports"
	"route-board-service/internal/services"
	"strings"
)

// AssignmentHandler drives the single assignment session. History is
// optional; without it the commands endpoint answers 501.
type AssignmentHandler struct {
	Desk    *services.AssignmentDesk
	History ports.AssignmentHistory
}

func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	h.writeSession(w, r, http.StatusOK)
}

func (h *AssignmentHandler) Open(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req dto.OpenAssignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	routeID := strings.TrimSpace(req.RouteID)
	if routeID == "" {
		writeError(w, r, http.StatusBadRequest, "route_id is required")
		return
	}

	if _, err := h.Desk.Open(r.Context(), routeID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusCreated)
}

func (h *AssignmentHandler) ToggleRow(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if err := h.Desk.Session.ToggleRow(r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusOK)
}

func (h *AssignmentHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if err := h.Desk.SelectAllRows(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusOK)
}

// SetTime sets the hour or minute of one booking's pickup time.
func (h *AssignmentHandler) SetTime(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPut) {
		return
	}

	var req dto.SetTimeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeError(w, r, http.StatusBadRequest, "value is required")
		return
	}

	field := domain.TimeField(req.Field)
	v := *req.Value
	switch field {
	case domain.FieldHour:
		if v < 0 || v > 23 {
			writeError(w, r, http.StatusBadRequest, "hour must be between 0 and 23")
			return
		}
	case domain.FieldMinute:
		if v < 0 || v > 59 {
			writeError(w, r, http.StatusBadRequest, "minute must be between 0 and 59")
			return
		}
	}

	if err := h.Desk.Session.SetTime(r.PathValue("id"), field, v); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusOK)
}

func (h *AssignmentHandler) SetVendor(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPut) {
		return
	}

	var req dto.SetVendorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Desk.Session.SetVendor(strings.TrimSpace(req.VendorID)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusOK)
}

// Save commits the draft. A rejected save answers 409 with the reason and
// leaves the session untouched.
func (h *AssignmentHandler) Save(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	saved, err := h.Desk.Session.Save(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !saved {
		msg := "save rejected"
		if blocker := h.Desk.Session.SaveBlocker(); blocker != nil {
			msg = blocker.Error()
		}
		writeError(w, r, http.StatusConflict, msg)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.SaveAssignmentResponse{Saved: true})
}

func (h *AssignmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	h.Desk.Session.Cancel()
	h.writeSession(w, r, http.StatusOK)
}

// Commands lists persisted commands, optionally filtered by ?route_id=.
func (h *AssignmentHandler) Commands(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	if h.History == nil {
		writeError(w, r, http.StatusNotImplemented, "command history is not configured")
		return
	}

	cmds, err := h.History.ListCommands(r.Context(), r.URL.Query().Get("route_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListCommandResponse{Commands: make([]dto.CommandResponse, 0, len(cmds))}
	for _, c := range cmds {
		res.Commands = append(res.Commands, dto.CommandResponse{
			ID:                 c.ID,
			RouteID:            c.RouteID,
			VendorID:           c.VendorID,
			SelectedBookingIDs: c.SelectedBookingIDs,
			PerBookingTime:     toTimes(c.PerBookingTime),
			IssuedAt:           c.IssuedAt,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *AssignmentHandler) writeSession(w http.ResponseWriter, r *http.Request, status int) {
	s := h.Desk.Session
	res := dto.AssignmentResponse{
		State:              s.State().String(),
		SelectedBookingIDs: []string{},
		PerBookingTime:     map[string]dto.PickupTimeResponse{},
	}

	if d, ok := s.Draft(); ok {
		res.RouteID = d.RouteID
		res.SelectedBookingIDs = d.SelectedBookingIDs
		res.VendorID = d.VendorID
		res.PerBookingTime = toTimes(d.PerBookingTime)

		if blocker := s.SaveBlocker(); blocker != nil {
			res.SaveBlocker = blocker.Error()
		} else {
			res.CanSave = true
		}
	}

	writeJSON(w, r, status, res)
}

func toTimes(in map[string]domain.PickupTime) map[string]dto.PickupTimeResponse {
	out := make(map[string]dto.PickupTimeResponse, len(in))
	for id, t := range in {
		out[id] = dto.PickupTimeResponse{Hour: t.Hour, Minute: t.Minute}
	}
	return out
}
