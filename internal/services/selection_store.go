package services

import (
	"slices"
	"sync"
)

// SelectionStore holds two independent id sets: selected routes and
// selected bookings. Sets only change through the explicit operations below.
type SelectionStore struct {
	mu       sync.RWMutex
	routes   map[string]struct{}
	bookings map[string]struct{}
}

func NewSelectionStore() *SelectionStore {
	return &SelectionStore{
		routes:   make(map[string]struct{}),
		bookings: make(map[string]struct{}),
	}
}

// ToggleRoute flips membership of id and returns the resulting route set.
func (s *SelectionStore) ToggleRoute(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggle(s.routes, id)
	return sortedKeys(s.routes)
}

// SetRoutes replaces the route selection.
func (s *SelectionStore) SetRoutes(ids []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.routes[id] = struct{}{}
	}
	return sortedKeys(s.routes)
}

// SelectAllRoutes selects every id in all unless all of them are already
// selected, in which case the route selection is cleared.
func (s *SelectionStore) SelectAllRoutes(all []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = selectAll(s.routes, all)
	return sortedKeys(s.routes)
}

func (s *SelectionStore) ToggleBooking(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggle(s.bookings, id)
	return sortedKeys(s.bookings)
}

func (s *SelectionStore) SelectAllBookings(all []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = selectAll(s.bookings, all)
	return sortedKeys(s.bookings)
}

func (s *SelectionStore) ClearBookings() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = make(map[string]struct{})
}

func (s *SelectionStore) RouteIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.routes)
}

func (s *SelectionStore) BookingIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.bookings)
}

func toggle(set map[string]struct{}, id string) {
	if _, ok := set[id]; ok {
		delete(set, id)
		return
	}
	set[id] = struct{}{}
}

// selectAll is a binary toggle, not an additive union.
func selectAll(set map[string]struct{}, all []string) map[string]struct{} {
	allSelected := true
	for _, id := range all {
		if _, ok := set[id]; !ok {
			allSelected = false
			break
		}
	}

	if allSelected {
		return make(map[string]struct{})
	}

	next := make(map[string]struct{}, len(all))
	for _, id := range all {
		next[id] = struct{}{}
	}
	return next
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
