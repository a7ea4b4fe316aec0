package ports

import "context"

// Optional persistent cache in front of a DirectionsService.
// Keys are request fingerprints computed by the caller.
type DirectionsCache interface {
	Get(ctx context.Context, key string) (DirectionsResult, bool, error)
	Put(ctx context.Context, key string, res DirectionsResult) error
}
