package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"route-board-service/internal/domain"
	"route-board-service/internal/ports"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type SessionState int

const (
	SessionClosed SessionState = iota
	SessionOpen
	SessionSaving
)

func (s SessionState) String() string {
	switch s {
	case SessionOpen:
		return "open"
	case SessionSaving:
		return "saving"
	default:
		return "closed"
	}
}

var (
	ErrSessionOpen    = errors.New("assignment session already open")
	ErrSessionClosed  = errors.New("assignment session is not open")
	ErrUnknownBooking = errors.New("booking does not belong to the session's route")
	ErrUnknownField   = errors.New("time field must be hour or minute")

	// Save preconditions. Save itself never returns these; SaveBlocker does.
	ErrNoBookingsSelected = errors.New("select at least one booking")
	ErrVendorRequired     = errors.New("choose a vendor")
)

// AssignmentDraft is the in-progress, unsaved state of one route's
// assignment. It is never persisted; only the command derived from it is.
type AssignmentDraft struct {
	RouteID            string
	SelectedBookingIDs []string
	VendorID           string
	PerBookingTime     map[string]domain.PickupTime
}

func (d AssignmentDraft) clone() AssignmentDraft {
	d.SelectedBookingIDs = slices.Clone(d.SelectedBookingIDs)
	d.PerBookingTime = maps.Clone(d.PerBookingTime)
	return d
}

// AssignmentSession is the per-route state machine behind the assignment
// modal: Closed -> Open -> Saving -> Closed. Only Save and Cancel leave Open.
type AssignmentSession struct {
	mu    sync.Mutex
	state SessionState
	route domain.Route
	draft AssignmentDraft

	sink    ports.AssignmentSink
	now     func() time.Time
	newID   func() string
	log     zerolog.Logger
	metrics Metrics
}

type SessionOption func(*AssignmentSession)

func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *AssignmentSession) { s.now = now }
}

func WithSessionLogger(l zerolog.Logger) SessionOption {
	return func(s *AssignmentSession) { s.log = l }
}

func WithSessionMetrics(m Metrics) SessionOption {
	return func(s *AssignmentSession) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewAssignmentSession(sink ports.AssignmentSink, opts ...SessionOption) *AssignmentSession {
	s := &AssignmentSession{
		sink:    sink,
		now:     time.Now,
		newID:   uuid.NewString,
		log:     zerolog.Nop(),
		metrics: NopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a draft for route with every booking's time at 00:00 and no
// bookings selected.
func (s *AssignmentSession) Open(route domain.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionClosed {
		return ErrSessionOpen
	}

	times := make(map[string]domain.PickupTime, len(route.Bookings))
	for _, b := range route.Bookings {
		times[b.ID] = domain.PickupTime{}
	}

	s.route = route
	s.draft = AssignmentDraft{
		RouteID:            route.ID,
		SelectedBookingIDs: []string{},
		PerBookingTime:     times,
	}
	s.state = SessionOpen
	return nil
}

// ToggleRow flips membership of bookingID in the selection.
func (s *AssignmentSession) ToggleRow(bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBookingLocked(bookingID); err != nil {
		return err
	}

	if i := slices.Index(s.draft.SelectedBookingIDs, bookingID); i >= 0 {
		s.draft.SelectedBookingIDs = slices.Delete(s.draft.SelectedBookingIDs, i, i+1)
		return nil
	}
	s.draft.SelectedBookingIDs = append(s.draft.SelectedBookingIDs, bookingID)
	return nil
}

// SelectAll selects every id in allIDs unless all are already selected, in
// which case the selection is cleared.
func (s *AssignmentSession) SelectAll(allIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionOpen {
		return ErrSessionClosed
	}
	for _, id := range allIDs {
		if !s.route.HasBooking(id) {
			return fmt.Errorf("select all %q: %w", id, ErrUnknownBooking)
		}
	}

	allSelected := true
	for _, id := range allIDs {
		if !slices.Contains(s.draft.SelectedBookingIDs, id) {
			allSelected = false
			break
		}
	}

	if allSelected {
		s.draft.SelectedBookingIDs = []string{}
		return nil
	}

	next := make([]string, 0, len(allIDs))
	for _, id := range allIDs {
		if !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	s.draft.SelectedBookingIDs = next
	return nil
}

// SetTime overrides one field of a booking's pickup time. Bounds are the
// caller's responsibility: hour 0-23, minute 0-59.
func (s *AssignmentSession) SetTime(bookingID string, field domain.TimeField, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBookingLocked(bookingID); err != nil {
		return err
	}

	t := s.draft.PerBookingTime[bookingID]
	switch field {
	case domain.FieldHour:
		t.Hour = value
	case domain.FieldMinute:
		t.Minute = value
	default:
		return ErrUnknownField
	}
	s.draft.PerBookingTime[bookingID] = t
	return nil
}

func (s *AssignmentSession) SetVendor(vendorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionOpen {
		return ErrSessionClosed
	}
	s.draft.VendorID = vendorID
	return nil
}

// SaveBlocker reports why Save would currently be a no-op, or nil if it would emit.
func (s *AssignmentSession) SaveBlocker() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveBlockerLocked()
}

func (s *AssignmentSession) saveBlockerLocked() error {
	if s.state != SessionOpen {
		return ErrSessionClosed
	}
	if len(s.draft.SelectedBookingIDs) == 0 {
		return ErrNoBookingsSelected
	}
	if s.draft.VendorID == "" {
		return ErrVendorRequired
	}
	return nil
}

// Save emits the assignment command and closes the session. It is a no-op
// returning (false, nil) unless at least one booking is selected and a vendor
// is set. If the sink rejects the command the session stays open with its
// draft intact.
func (s *AssignmentSession) Save(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionOpen {
		return false, ErrSessionClosed
	}
	if err := s.saveBlockerLocked(); err != nil {
		s.metrics.AssignmentSave("rejected")
		s.log.Debug().Str("route_id", s.draft.RouteID).Err(err).Msg("save rejected")
		return false, nil
	}

	s.state = SessionSaving
	d := s.draft.clone()
	cmd := domain.AssignmentCommand{
		ID:                 s.newID(),
		RouteID:            d.RouteID,
		VendorID:           d.VendorID,
		SelectedBookingIDs: d.SelectedBookingIDs,
		PerBookingTime:     d.PerBookingTime,
		IssuedAt:           s.now().UTC(),
	}

	if err := s.sink.Submit(ctx, cmd); err != nil {
		s.state = SessionOpen
		s.metrics.AssignmentSave("failed")
		return false, fmt.Errorf("save assignment route=%s: %w", cmd.RouteID, err)
	}

	s.metrics.AssignmentSave("saved")
	s.log.Info().
		Str("command_id", cmd.ID).
		Str("route_id", cmd.RouteID).
		Str("vendor_id", cmd.VendorID).
		Int("bookings", len(cmd.SelectedBookingIDs)).
		Msg("assignment saved")

	s.reset()
	return true, nil
}

// Cancel discards the draft without emitting anything.
func (s *AssignmentSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *AssignmentSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Draft returns a copy of the current draft; ok is false when closed.
func (s *AssignmentSession) Draft() (AssignmentDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionClosed {
		return AssignmentDraft{}, false
	}
	return s.draft.clone(), true
}

// Route returns the route the session was opened for.
func (s *AssignmentSession) Route() (domain.Route, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route, s.state != SessionClosed
}

func (s *AssignmentSession) reset() {
	s.state = SessionClosed
	s.route = domain.Route{}
	s.draft = AssignmentDraft{}
}

func (s *AssignmentSession) checkBookingLocked(bookingID string) error {
	if s.state != SessionOpen {
		return ErrSessionClosed
	}
	if !s.route.HasBooking(bookingID) {
		return fmt.Errorf("booking %q: %w", bookingID, ErrUnknownBooking)
	}
	return nil
}
