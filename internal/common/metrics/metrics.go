package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_completed_total",
			Help: "Total number of admissions form submissions accepted by the store",
		},
		[]string{"driver"},
	)

	SubmissionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_failed_total",
			Help: "Total number of admissions form submissions rejected or failed",
		},
		[]string{"driver", "error_code"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "intake_submission_duration_seconds",
			Help: "Duration of the submit round trip in seconds",
		},
		[]string{"driver"},
	)

	SessionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "intake_session_state",
			Help: "Current session bootstrap state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)
)

var sessionStates = []string{"uninitialized", "unavailable", "connecting", "ready", "auth_failed"}

// SetSessionState marks one bootstrap state active and clears the rest.
func SetSessionState(state string) {
	for _, s := range sessionStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		SessionState.WithLabelValues(s).Set(v)
	}
}
