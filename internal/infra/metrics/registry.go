package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// collectors is filled by the init of each file in this package.
var (
	registerOnce sync.Once
	collectors   []prometheus.Collector
)

func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister publishes every collector on the default registry served at
// /metrics. Both the serve and sweep commands call it; only the first call counts.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(collectors...)
	})
}

// norm lowercases label values so "USD" and "usd " share a series.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
