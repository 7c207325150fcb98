package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exposed on /metrics. Registered on the default registry so the
// promhttp handler in internal/server picks them up.
var (
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paper_sessions_created_total",
		Help: "Editing sessions opened.",
	})

	ShufflesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paper_shuffles_total",
		Help: "Shuffle requests by applied mode.",
	}, []string{"mode"})

	ReplacementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paper_replacements_total",
		Help: "Working-list entries replaced from the pool.",
	})

	CollisionsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paper_identifier_collisions_total",
		Help: "Distinct working-list entries that derived the same identifier.",
	})

	LockPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paper_lock_persist_failures_total",
		Help: "Lock-set writes to the session store that failed and were swallowed.",
	})
)
