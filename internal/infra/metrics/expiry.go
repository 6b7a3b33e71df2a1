package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sweeperRunsTotal,
		accessRecordsDeactivatedTotal,
		remindersSentTotal,
	)
}

var (
	sweeperRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweeper_runs_total",
			Help: "Expiration sweeps by outcome (ok/error/skipped).",
		},
		[]string{"result"},
	)

	accessRecordsDeactivatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_records_deactivated_total",
			Help: "Total number of access records flipped inactive by the sweeper.",
		},
	)

	remindersSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Expiry reminders delivered, labeled by threshold in days.",
		},
		[]string{"threshold"},
	)
)

func IncSweeperRun(result string) {
	sweeperRunsTotal.WithLabelValues(norm(result)).Inc()
}

func AddAccessRecordsDeactivated(n int) {
	accessRecordsDeactivatedTotal.Add(float64(n))
}

func IncReminderSent(threshold string) {
	remindersSentTotal.WithLabelValues(norm(threshold)).Inc()
}
