// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stemsplit_uploads_total",
		Help: "Upload attempts to the separation backend by outcome",
	}, []string{"outcome"}) // outcome=success|failure|cancelled

	uploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stemsplit_upload_bytes",
		Help:    "Size of files sent to the separation backend",
		Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
	})

	selectionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stemsplit_selections_rejected_total",
		Help: "File selections rejected before reaching a session",
	}, []string{"reason"}) // reason=type|size|empty

	jobTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stemsplit_job_transitions_total",
		Help: "Job status transitions by tracker and target status",
	}, []string{"tracker", "status"})

	statusPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stemsplit_status_polls_total",
		Help: "Job status polls against the separation backend",
	}, []string{"outcome"}) // outcome=ok|error|open

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stemsplit_sessions_active",
		Help: "Number of open upload sessions",
	})

	sessionsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stemsplit_sessions_closed_total",
		Help: "Upload sessions closed by reason",
	}, []string{"reason"}) // reason=client|idle|shutdown
)

// RecordUpload counts a finished upload attempt.
func RecordUpload(outcome string, size int64) {
	uploadsTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" && size > 0 {
		uploadBytes.Observe(float64(size))
	}
}

// RecordSelectionRejected counts a file refused by validation.
func RecordSelectionRejected(reason string) {
	selectionsRejected.WithLabelValues(reason).Inc()
}

// RecordJobTransition counts a job entering status.
func RecordJobTransition(tracker, status string) {
	jobTransitions.WithLabelValues(tracker, status).Inc()
}

// RecordStatusPoll counts one status poll.
func RecordStatusPoll(outcome string) {
	statusPolls.WithLabelValues(outcome).Inc()
}

// SessionOpened increments the active session gauge.
func SessionOpened() {
	activeSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func SessionClosed(reason string) {
	activeSessions.Dec()
	sessionsClosed.WithLabelValues(reason).Inc()
}
