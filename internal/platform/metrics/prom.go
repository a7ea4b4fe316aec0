package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromRecorder records route board engine events in Prometheus metrics.
type PromRecorder struct {
	fetches     *prometheus.CounterVec
	latency     prometheus.Histogram
	artifacts   prometheus.Gauge
	assignments *prometheus.CounterVec
}

// NewPromRecorder registers engine metrics on the provided registerer.
// If reg is nil, the default registerer is used. Collectors that are already
// registered are reused.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeboard_directions_fetches_total",
		Help: "Directions fetch attempts by outcome",
	}, []string{"outcome"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "routeboard_directions_fetch_seconds",
		Help:    "Routing service round-trip time",
		Buckets: prometheus.DefBuckets,
	})
	artifacts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "routeboard_render_artifacts",
		Help: "Routes currently rendered on the map surface",
	})
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeboard_assignment_saves_total",
		Help: "Assignment save attempts by result",
	}, []string{"result"})

	var err error
	if fetches, err = register(reg, fetches); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if artifacts, err = register(reg, artifacts); err != nil {
		return nil, err
	}
	if assignments, err = register(reg, assignments); err != nil {
		return nil, err
	}

	return &PromRecorder{
		fetches:     fetches,
		latency:     latency,
		artifacts:   artifacts,
		assignments: assignments,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) FetchOutcome(outcome string) {
	r.fetches.WithLabelValues(outcome).Inc()
}

func (r *PromRecorder) FetchLatency(d time.Duration) {
	r.latency.Observe(d.Seconds())
}

func (r *PromRecorder) ArtifactsActive(n int) {
	r.artifacts.Set(float64(n))
}

func (r *PromRecorder) AssignmentSave(result string) {
	r.assignments.WithLabelValues(result).Inc()
}
