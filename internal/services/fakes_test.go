package services

import (
	"context"
	"errors"
	"route-board-service/internal/domain"
	"route-board-service/internal/ports"
	"sync"
	"testing"
	"time"
)

type memCatalog struct {
	routes []domain.Route
}

func (c *memCatalog) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	return c.routes, nil
}

func (c *memCatalog) GetRoute(ctx context.Context, id string) (domain.Route, error) {
	for _, r := range c.routes {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Route{}, ports.ErrRouteNotFound
}

// flakyCatalog fails the first failures lookups with err.
type flakyCatalog struct {
	memCatalog
	mu       sync.Mutex
	failures int
	err      error
}

func (c *flakyCatalog) GetRoute(ctx context.Context, id string) (domain.Route, error) {
	c.mu.Lock()
	if c.failures > 0 {
		c.failures--
		c.mu.Unlock()
		return domain.Route{}, c.err
	}
	c.mu.Unlock()
	return c.memCatalog.GetRoute(ctx, id)
}

// routingCall is one blocked call to gatedDirections.
type routingCall struct {
	req   ports.DirectionsRequest
	reply chan routingReply
}

type routingReply struct {
	res ports.DirectionsResult
	err error
}

func (c *routingCall) succeed() {
	path := []domain.Coordinates{c.req.Origin}
	path = append(path, c.req.Waypoints...)
	path = append(path, c.req.Destination)
	c.reply <- routingReply{res: ports.DirectionsResult{Path: path, DistanceMeters: 1200, DurationSeconds: 300}}
}

func (c *routingCall) fail(err error) {
	c.reply <- routingReply{err: err}
}

// gatedDirections blocks every Route call until the test answers it.
type gatedDirections struct {
	mu    sync.Mutex
	count int
	calls chan *routingCall
}

func newGatedDirections() *gatedDirections {
	return &gatedDirections{calls: make(chan *routingCall, 32)}
}

func (g *gatedDirections) Route(ctx context.Context, req ports.DirectionsRequest) (ports.DirectionsResult, error) {
	g.mu.Lock()
	g.count++
	g.mu.Unlock()

	call := &routingCall{req: req, reply: make(chan routingReply, 1)}
	g.calls <- call

	select {
	case r := <-call.reply:
		return r.res, r.err
	case <-ctx.Done():
		return ports.DirectionsResult{}, ctx.Err()
	}
}

func (g *gatedDirections) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

func (g *gatedDirections) next(t *testing.T) *routingCall {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a routing call")
		return nil
	}
}

func (g *gatedDirections) assertNoCall(t *testing.T) {
	t.Helper()
	select {
	case c := <-g.calls:
		t.Fatalf("unexpected routing call from origin %+v", c.req.Origin)
	case <-time.After(50 * time.Millisecond):
	}
}

// failingSurface fails every marker placement after the path.
type failingSurface struct {
	removed []domain.Handle
}

func (s *failingSurface) DrawPath(p domain.Path) (domain.Handle, error) { return "path-1", nil }

func (s *failingSurface) PlaceMarker(m domain.Marker) (domain.Handle, error) {
	return "", errors.New("surface gone")
}

func (s *failingSurface) Remove(h domain.Handle) { s.removed = append(s.removed, h) }

type recordingSink struct {
	mu   sync.Mutex
	cmds []domain.AssignmentCommand
	err  error
}

func (s *recordingSink) Submit(ctx context.Context, cmd domain.AssignmentCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.cmds = append(s.cmds, cmd)
	return nil
}

func fp(v float64) *float64 { return &v }

func geoStop(booking string, base float64) domain.Stop {
	return domain.Stop{
		BookingID: booking,
		PickupLat: fp(base),
		PickupLng: fp(base + 0.1),
		DropLat:   fp(base + 0.2),
		DropLng:   fp(base + 0.3),
	}
}

func bookings(ids ...string) []domain.Booking {
	out := make([]domain.Booking, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Booking{ID: id, EmployeeCode: "E-" + id})
	}
	return out
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	saves    map[string]int
	active   int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: map[string]int{}, saves: map[string]int{}}
}

func (m *countingMetrics) FetchOutcome(o string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[o]++
}

func (m *countingMetrics) FetchLatency(time.Duration) {}

func (m *countingMetrics) ArtifactsActive(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = n
}

func (m *countingMetrics) AssignmentSave(r string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[r]++
}

func (m *countingMetrics) outcome(o string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[o]
}
