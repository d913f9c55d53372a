package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ticketsIssuedTotal,
		ticketPurchasesTotal,
		ticketRevenueTotal,
		ledgerTickets,
	)
}

var (
	ticketsIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Number of tickets minted.",
		},
	)

	ticketPurchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_purchases_total",
			Help: "Ticket purchase attempts by outcome (ok or the failure kind).",
		},
		[]string{"result"},
	)

	ticketRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_revenue_total",
			Help: "Sum of deposits accepted by successful purchases.",
		},
	)

	ledgerTickets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_tickets",
			Help: "Current ticket totals sampled from the store.",
		},
		[]string{"state"}, // 'issued', 'used'
	)
)

func AddTicketsIssued(n int) {
	ticketsIssuedTotal.Add(float64(n))
}

func IncPurchase(result string) {
	ticketPurchasesTotal.WithLabelValues(norm(result)).Inc()
}

func AddRevenue(amount float64) {
	ticketRevenueTotal.Add(amount)
}

func SetLedgerTickets(issued, used uint64) {
	ledgerTickets.WithLabelValues("issued").Set(float64(issued))
	ledgerTickets.WithLabelValues("used").Set(float64(used))
}
