package observability

import "github.com/prometheus/client_golang/prometheus"

// Lifecycle counters. Label values are drawn from closed sets (statuses,
// fallback reasons) so cardinality stays bounded.
var (
	RequestsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "maintenance_requests_created_total",
			Help: "Maintenance requests successfully created.",
		},
	)

	NumberFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_request_number_fallbacks_total",
			Help: "Request numbers issued in the MR-GEN fallback form, by reason.",
		},
		[]string{"reason"},
	)

	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_request_status_transitions_total",
			Help: "Recorded status transitions by previous and new status.",
		},
		[]string{"from", "to"},
	)

	WorkLogsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "maintenance_request_work_logs_total",
			Help: "Work log entries appended.",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestsCreated, NumberFallbacks, StatusTransitions, WorkLogsAdded)
}
