package services

import (
	"context"
	"errors"
	"fmt"
	"route-board-service/internal/domain"
	"route-board-service/internal/ports"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RouteResolver looks up route records by id; ports.RouteCatalog satisfies it.
type RouteResolver interface {
	GetRoute(ctx context.Context, id string) (domain.Route, error)
}

// DirectionsReconciler keeps rendered route artifacts in exact
// correspondence with the route selection, using the fewest routing calls.
//
// Every selection change is applied through Reconcile: removed routes lose
// their artifact and pending marker synchronously, added routes get one
// fetch each. Fetches for different routes run concurrently and may finish
// in any order; a result is only rendered if its route is still selected and
// its fetch has not been superseded.
type DirectionsReconciler struct {
	// reconcileMu serializes selection changes; mu guards state shared with
	// in-flight fetches.
	reconcileMu sync.Mutex
	mu          sync.Mutex

	resolver  RouteResolver
	fetcher   *DirectionsFetcher
	artifacts *ArtifactManager

	selected         map[string]struct{}
	routes           map[string]domain.Route
	preferLocalRoads bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log     zerolog.Logger
	metrics Metrics
}

type ReconcilerOption func(*DirectionsReconciler)

func WithReconcilerLogger(l zerolog.Logger) ReconcilerOption {
	return func(r *DirectionsReconciler) { r.log = l }
}

func WithReconcilerMetrics(m Metrics) ReconcilerOption {
	return func(r *DirectionsReconciler) {
		if m != nil {
			r.metrics = m
		}
	}
}

func WithPreferLocalRoads(v bool) ReconcilerOption {
	return func(r *DirectionsReconciler) { r.preferLocalRoads = v }
}

func NewDirectionsReconciler(
	resolver RouteResolver,
	service ports.DirectionsService,
	surface ports.RenderSurface,
	opts ...ReconcilerOption,
) *DirectionsReconciler {
	ctx, cancel := context.WithCancel(context.Background())
	r := &DirectionsReconciler{
		resolver:  resolver,
		fetcher:   NewDirectionsFetcher(service),
		artifacts: NewArtifactManager(surface),
		selected:  make(map[string]struct{}),
		routes:    make(map[string]domain.Route),
		ctx:       ctx,
		cancel:    cancel,
		log:       zerolog.Nop(),
		metrics:   NopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetSelection reconciles against the previously reconciled selection.
func (r *DirectionsReconciler) SetSelection(ctx context.Context, ids []string) error {
	r.reconcileMu.Lock()
	defer r.reconcileMu.Unlock()

	r.mu.Lock()
	old := sortedKeys(r.selected)
	r.mu.Unlock()

	return r.reconcileLocked(ctx, old, ids)
}

// Reconcile applies the difference between old and next.
func (r *DirectionsReconciler) Reconcile(ctx context.Context, old, next []string) error {
	r.reconcileMu.Lock()
	defer r.reconcileMu.Unlock()
	return r.reconcileLocked(ctx, old, next)
}

func (r *DirectionsReconciler) reconcileLocked(ctx context.Context, old, next []string) error {
	added, removed := diffIDs(old, next)
	added = append(added, r.unresolved(next, added)...)

	// Catalog lookups happen before taking the state lock so in-flight
	// fetches are never blocked on the catalog.
	resolved := make(map[string]domain.Route, len(added))
	var lookupErr error
	for _, id := range added {
		route, err := r.resolver.GetRoute(ctx, id)
		if err != nil {
			r.metrics.FetchOutcome(OutcomeUnknownRoute)
			r.log.Warn().Str("route_id", id).Err(err).Msg("route lookup failed; selected without directions")
			if !errors.Is(err, ports.ErrRouteNotFound) && lookupErr == nil {
				lookupErr = fmt.Errorf("reconcile: get route %s: %w", id, err)
			}
			continue
		}
		resolved[id] = route
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range removed {
		delete(r.selected, id)
		delete(r.routes, id)
		r.artifacts.Destroy(id)
		r.fetcher.Cancel(id)
	}

	for _, id := range added {
		r.selected[id] = struct{}{}
		route, ok := resolved[id]
		if !ok {
			continue
		}
		r.routes[id] = route
		r.startFetchLocked(route)
	}

	r.metrics.ArtifactsActive(r.artifacts.Len())
	return lookupErr
}

// unresolved returns ids of next that are already selected but whose catalog
// lookup never succeeded, so the next reconcile looks them up again.
func (r *DirectionsReconciler) unresolved(next, added []string) []string {
	skip := make(map[string]struct{}, len(added))
	for _, id := range added {
		skip[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for _, id := range next {
		if _, ok := skip[id]; ok {
			continue
		}
		skip[id] = struct{}{}
		_, selected := r.selected[id]
		_, known := r.routes[id]
		if selected && !known {
			ids = append(ids, id)
		}
	}
	return ids
}

// SetPreferLocalRoads changes the avoidance flags used for routing calls.
// A change re-fetches every selected route as if it had just been added.
func (r *DirectionsReconciler) SetPreferLocalRoads(v bool) {
	r.reconcileMu.Lock()
	defer r.reconcileMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.preferLocalRoads == v {
		return
	}
	r.preferLocalRoads = v

	for _, id := range sortedKeys(r.selected) {
		r.artifacts.Destroy(id)
		r.fetcher.Cancel(id)
		if route, ok := r.routes[id]; ok {
			r.startFetchLocked(route)
		}
	}
	r.metrics.ArtifactsActive(r.artifacts.Len())
}

func (r *DirectionsReconciler) PreferLocalRoads() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preferLocalRoads
}

// TeardownAll destroys every artifact, clears every pending marker and
// forgets the reconciled selection.
func (r *DirectionsReconciler) TeardownAll() {
	r.reconcileMu.Lock()
	defer r.reconcileMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	r.artifacts.DestroyAll()
	r.fetcher.CancelAll()
	clear(r.selected)
	clear(r.routes)
	r.metrics.ArtifactsActive(0)
}

// Wait blocks until every in-flight fetch has resolved.
func (r *DirectionsReconciler) Wait() {
	r.wg.Wait()
}

// Close tears everything down and cancels outstanding routing calls.
func (r *DirectionsReconciler) Close() {
	r.TeardownAll()
	r.cancel()
	r.wg.Wait()
}

// startFetchLocked must be called with r.mu held.
func (r *DirectionsReconciler) startFetchLocked(route domain.Route) {
	if r.artifacts.Has(route.ID) {
		return
	}

	job, err := r.fetcher.Begin(route, r.preferLocalRoads)
	switch {
	case errors.Is(err, domain.ErrInsufficientStops):
		r.metrics.FetchOutcome(OutcomeInsufficient)
		r.log.Debug().Str("route_id", route.ID).Msg("skipping directions: fewer than 2 geocoded points")
		return
	case errors.Is(err, errFetchPending):
		r.metrics.FetchOutcome(OutcomeDuplicate)
		return
	case err != nil:
		r.log.Error().Str("route_id", route.ID).Err(err).Msg("begin directions fetch")
		return
	}

	r.wg.Add(1)
	go r.runFetch(job)
}

func (r *DirectionsReconciler) runFetch(job *fetchJob) {
	defer r.wg.Done()

	start := time.Now()
	res := r.fetcher.Run(r.log.WithContext(r.ctx), job)
	r.metrics.FetchLatency(time.Since(start))

	r.resolve(res)
}

// resolve applies a fetch result. The pending marker is cleared first in
// every case so the route can be fetched again after success, failure or a
// stale discard.
func (r *DirectionsReconciler) resolve(res fetchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := res.job.route.ID
	current := r.fetcher.Complete(res.job)
	_, selected := r.selected[id]

	if res.err != nil {
		r.metrics.FetchOutcome(OutcomeFailure)
		r.log.Warn().Str("route_id", id).Err(res.err).Msg("directions fetch failed")
		return
	}

	if !selected || !current {
		r.metrics.FetchOutcome(OutcomeStale)
		r.log.Debug().Str("route_id", id).Msg("discarding stale directions response")
		return
	}

	a, err := r.artifacts.Create(res.job.route, res.job.usable, res.data)
	if err != nil {
		r.metrics.FetchOutcome(OutcomeRenderFailed)
		r.log.Error().Str("route_id", id).Err(err).Msg("render route artifact")
		return
	}

	r.metrics.FetchOutcome(OutcomeSuccess)
	r.metrics.ArtifactsActive(r.artifacts.Len())
	r.log.Debug().
		Str("route_id", id).
		Str("color", a.Color).
		Int("markers", len(a.Markers)).
		Int("distance_m", a.Summary.DistanceMeters).
		Msg("route rendered")
}

// ReconcilerSnapshot is a read-only view of the reconciler state.
type ReconcilerSnapshot struct {
	Selected         []string
	Pending          []string
	Artifacts        []domain.RenderArtifact
	PreferLocalRoads bool
}

func (r *DirectionsReconciler) Snapshot() ReconcilerSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ReconcilerSnapshot{
		Selected:         sortedKeys(r.selected),
		Pending:          r.fetcher.PendingIDs(),
		Artifacts:        r.artifacts.Artifacts(),
		PreferLocalRoads: r.preferLocalRoads,
	}
}

// diffIDs returns ids only in next (added) and only in old (removed),
// each in first-seen order.
func diffIDs(old, next []string) (added, removed []string) {
	oldSet := make(map[string]struct{}, len(old))
	for _, id := range old {
		oldSet[id] = struct{}{}
	}
	nextSet := make(map[string]struct{}, len(next))
	for _, id := range next {
		if _, dup := nextSet[id]; dup {
			continue
		}
		nextSet[id] = struct{}{}
		if _, ok := oldSet[id]; !ok {
			added = append(added, id)
		}
	}
	seen := make(map[string]struct{}, len(old))
	for _, id := range old {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := nextSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}
