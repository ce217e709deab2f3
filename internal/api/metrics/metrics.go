// Package metrics defines and registers all custom Prometheus metrics for the
// CRM backend. It is the single source of truth for metric names, labels, and
// help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// StatusUpdatesTotal counts status transitions that committed successfully.
// Labels:
//   - status: the new lead status applied (e.g. "Interested")
//   - changed: "true" for a genuine transition, "false" for a re-affirmation
var StatusUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_status_updates_total",
		Help:      "Total number of lead status updates successfully committed.",
	},
	[]string{"status", "changed"},
)

// StatusUpdateErrorsTotal counts status updates that failed.
// Label:
//   - reason: short description of the failure ("invalid_status", "not_found", "forbidden", "persistence")
var StatusUpdateErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_status_update_errors_total",
		Help:      "Total number of lead status updates that failed.",
	},
	[]string{"reason"},
)

// AccessDeniedTotal counts record-level authorization denials.
// Label:
//   - operation: "update_status" or "list_history"
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_access_denied_total",
		Help:      "Total number of lead operations denied by the access guard.",
	},
	[]string{"operation"},
)

// StatusUpdateDuration measures how long one status update takes end-to-end,
// from load to committed audit append.
// Label:
//   - status: the resulting lead status, or "error" on failure
var StatusUpdateDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lead_status_update_duration_seconds",
		Help:      "Duration of a lead status update from load to commit.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"status"},
)
