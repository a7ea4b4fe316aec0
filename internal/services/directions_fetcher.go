package services

import (
	"context"
	"errors"
	"route-board-service/internal/domain"
	"route-board-service/internal/ports"
)

// errFetchPending reports a fetch requested while one is already pending for
// the same route. Callers treat it as a silent no-op.
var errFetchPending = errors.New("directions fetch already pending")

// DirectionsFetcher issues one routing-service call per route and keeps the
// pending marker set that blocks duplicate requests for the same route id.
//
// The fetcher is not safe for concurrent use on its own: Begin, Complete and
// Cancel must run under the owning reconciler's lock so that the pending
// check-then-set is a single critical section. Run is lock-free.
type DirectionsFetcher struct {
	service ports.DirectionsService
	pending map[string]uint64
	nextTok uint64
}

func NewDirectionsFetcher(service ports.DirectionsService) *DirectionsFetcher {
	return &DirectionsFetcher{
		service: service,
		pending: make(map[string]uint64),
	}
}

// fetchJob is one accepted routing call, identified by its pending token.
type fetchJob struct {
	route  domain.Route
	usable []domain.Stop
	req    ports.DirectionsRequest
	token  uint64
}

// fetchResult is the outcome of a fetchJob: data on success, a *FetchError otherwise.
type fetchResult struct {
	job  *fetchJob
	data ports.DirectionsResult
	err  error
}

// Begin validates the route's stops and marks it pending.
// It returns domain.ErrInsufficientStops (without marking pending) when fewer
// than two usable points exist, and errFetchPending for duplicates.
func (f *DirectionsFetcher) Begin(route domain.Route, preferLocalRoads bool) (*fetchJob, error) {
	usable := domain.UsableStops(route.Stops)
	leg, err := domain.BuildLeg(domain.FlattenPoints(usable))
	if err != nil {
		return nil, err
	}

	if _, ok := f.pending[route.ID]; ok {
		return nil, errFetchPending
	}

	f.nextTok++
	f.pending[route.ID] = f.nextTok

	return &fetchJob{
		route:  route,
		usable: usable,
		token:  f.nextTok,
		req: ports.DirectionsRequest{
			Origin:        leg.Origin,
			Destination:   leg.Destination,
			Waypoints:     leg.Waypoints,
			AvoidHighways: preferLocalRoads,
			AvoidTolls:    preferLocalRoads,
			Alternatives:  false,
		},
	}, nil
}

// Run performs the routing call. It must not be called with the reconciler lock held.
func (f *DirectionsFetcher) Run(ctx context.Context, job *fetchJob) fetchResult {
	data, err := f.service.Route(ctx, job.req)
	if err != nil {
		return fetchResult{job: job, err: &domain.FetchError{RouteID: job.route.ID, Err: err}}
	}
	return fetchResult{job: job, data: data}
}

// Complete clears the pending marker if it still belongs to job and reports
// whether it did. A false return means the job was cancelled or superseded.
func (f *DirectionsFetcher) Complete(job *fetchJob) bool {
	tok, ok := f.pending[job.route.ID]
	if !ok || tok != job.token {
		return false
	}
	delete(f.pending, job.route.ID)
	return true
}

func (f *DirectionsFetcher) Pending(routeID string) bool {
	_, ok := f.pending[routeID]
	return ok
}

// Cancel forgets the pending marker for routeID. The network call, if any,
// still completes; its result no longer matches and is discarded.
func (f *DirectionsFetcher) Cancel(routeID string) {
	delete(f.pending, routeID)
}

func (f *DirectionsFetcher) CancelAll() {
	clear(f.pending)
}

func (f *DirectionsFetcher) PendingIDs() []string {
	ids := make(map[string]struct{}, len(f.pending))
	for id := range f.pending {
		ids[id] = struct{}{}
	}
	return sortedKeys(ids)
}
