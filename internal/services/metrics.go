package services

import "time"

// Fetch outcomes reported to Metrics.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeStale        = "stale"
	OutcomeDuplicate    = "duplicate"
	OutcomeInsufficient = "insufficient_stops"
	OutcomeRenderFailed = "render_failed"
	OutcomeUnknownRoute = "unknown_route"
)

// Metrics receives engine events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	FetchOutcome(outcome string)
	FetchLatency(d time.Duration)
	ArtifactsActive(n int)
	AssignmentSave(result string)
}

// NopMetrics implements Metrics with no-op methods.
type NopMetrics struct{}

func (NopMetrics) FetchOutcome(string) {}
func (NopMetrics) FetchLatency(time.Duration) {}
func (NopMetrics) ArtifactsActive(int) {}
func (NopMetrics) AssignmentSave(string) {}
