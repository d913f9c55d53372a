package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(registrationsTotal, ledgerMembers, adminChangesTotal) }

var (
	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "member_registrations_total",
			Help: "Registration calls by result (registered/already_registered).",
		},
		[]string{"result"},
	)

	ledgerMembers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_members",
			Help: "Registered members sampled from the store.",
		},
	)

	adminChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "privileged_changes_total",
			Help: "Privileged operations by action (add_admin/set_price) and result.",
		},
		[]string{"action", "result"},
	)
)

func IncRegistration(result string) {
	registrationsTotal.WithLabelValues(norm(result)).Inc()
}

func SetLedgerMembers(n uint64) {
	ledgerMembers.Set(float64(n))
}

func IncPrivileged(action, result string) {
	adminChangesTotal.WithLabelValues(norm(action), norm(result)).Inc()
}
