package domain

import "fmt"

// FetchError wraps a routing-service failure for a single route. Failures are
// route-local: the route stays retryable on its next selection.
type FetchError struct {
	RouteID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch directions for route %s: %v", e.RouteID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
