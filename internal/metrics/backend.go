// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stemsplit_backend_breaker_state",
		Help: "Breaker state per backend; the active state is 1",
	}, []string{"backend", "state"})

	breakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stemsplit_backend_breaker_trips_total",
		Help: "Breaker transitions to open",
	}, []string{"backend", "reason"})

	backendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "stemsplit_backend_request_duration_seconds",
		Help: "Latency of calls to the separation backend",
		// Uploads of large files dominate the upper buckets.
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"operation", "outcome"})
)

var breakerStates = [...]string{"closed", "half-open", "open"}

// SetCircuitBreakerState marks state as the active breaker state of backend.
func SetCircuitBreakerState(backend, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		breakerState.WithLabelValues(backend, s).Set(v)
	}
}

// RecordCircuitBreakerTrip counts a transition to open.
func RecordCircuitBreakerTrip(backend, reason string) {
	breakerTrips.WithLabelValues(backend, reason).Inc()
}

// ObserveBackendRequest records one backend call that started at start.
func ObserveBackendRequest(operation, outcome string, start time.Time) {
	backendRequestDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}
