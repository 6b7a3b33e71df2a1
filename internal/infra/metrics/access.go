package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		accessEvaluationsTotal,
		accessEvaluationSeconds,
	)
}

var (
	accessEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_evaluations_total",
			Help: "Access decisions by resulting access type (free/monthly/yearly/expired/none/error).",
		},
		[]string{"result"},
	)

	accessEvaluationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "access_evaluation_seconds",
			Help:    "Latency of a single access evaluation.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func ObserveAccessEvaluation(result string, seconds float64) {
	accessEvaluationsTotal.WithLabelValues(norm(result)).Inc()
	accessEvaluationSeconds.Observe(seconds)
}
