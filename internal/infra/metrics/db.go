package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolStats, txTotal) }

var (
	dbPoolStats = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_stats",
			Help: "Current state of the database connection pool.",
		},
		[]string{"state"}, // 'total', 'idle', 'in_use'
	)

	txTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_transactions_total",
			Help: "Store transactions by backend and outcome (commit/rollback).",
		},
		[]string{"backend", "outcome"},
	)
)

func SetDBPoolStats(total, idle, inUse int32) {
	dbPoolStats.WithLabelValues("total").Set(float64(total))
	dbPoolStats.WithLabelValues("idle").Set(float64(idle))
	dbPoolStats.WithLabelValues("in_use").Set(float64(inUse))
}

func IncTx(backend, outcome string) {
	txTotal.WithLabelValues(norm(backend), norm(outcome)).Inc()
}
