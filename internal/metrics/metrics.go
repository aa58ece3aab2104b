// Package metrics defines Prometheus metrics for dashboard-gateway.
//
// Metrics are package-level collectors; Register adds them to a registry,
// which the server exposes on the configured metrics path.
//
// Naming:
//   - dashboard_ prefix for all metrics
//   - _total suffix for counters
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// GuardDecisionsTotal counts role guard decisions by section and outcome.
	GuardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_guard_decisions_total",
			Help: "Total number of role guard decisions by section and outcome.",
		},
		[]string{"section", "outcome"},
	)

	// PermissionDenialsTotal counts backend permission re-checks that failed.
	PermissionDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_permission_denials_total",
			Help: "Total number of requests rejected by a backend permission check.",
		},
		[]string{"code"},
	)

	// LoginsTotal counts login attempts by outcome.
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_logins_total",
			Help: "Total number of login attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register adds all dashboard collectors to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		GuardDecisionsTotal,
		PermissionDenialsTotal,
		LoginsTotal,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordGuardDecision increments the guard decision counter.
func RecordGuardDecision(section string, allowed bool) {
	outcome := OutcomeDenied
	if allowed {
		outcome = OutcomeAllowed
	}
	GuardDecisionsTotal.WithLabelValues(section, outcome).Inc()
}

// RecordPermissionDenial increments the permission denial counter.
func RecordPermissionDenial(code string) {
	PermissionDenialsTotal.WithLabelValues(code).Inc()
}

// RecordLogin increments the login counter.
func RecordLogin(success bool) {
	outcome := OutcomeFailure
	if success {
		outcome = OutcomeSuccess
	}
	LoginsTotal.WithLabelValues(outcome).Inc()
}
