// Package metrics exposes Prometheus counters for the execution core.
// Everything here is observability only; nothing reads these counters to
// make decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClassificationsTotal counts failure classifications per category
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selfheal_classifications_total",
			Help: "Total number of failure classifications by category",
		},
		[]string{"category"},
	)

	// RetryDecisionsTotal counts test-level retry verdicts
	RetryDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selfheal_retry_decisions_total",
			Help: "Total number of retry decisions by verdict and policy path",
		},
		[]string{"verdict", "path"},
	)

	// ActionsTotal counts UI action executions by action type and outcome
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selfheal_actions_total",
			Help: "Total number of UI actions by type and outcome",
		},
		[]string{"action", "outcome"},
	)

	// ActionRecoveriesTotal counts actions that succeeded after at least one
	// in-action retry
	ActionRecoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selfheal_action_recoveries_total",
			Help: "Total number of actions that recovered on a later attempt",
		},
		[]string{"action"},
	)

	// SessionsTotal counts session lifecycle events
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selfheal_sessions_total",
			Help: "Total number of session lifecycle events",
		},
		[]string{"event"},
	)
)
