package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		buildInfo,
		dbPoolConns,
		cacheRequestsTotal,
	)
}

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Always 1; labels carry the pathtech-academy version, commit and Go toolchain.",
		},
		[]string{"version", "commit", "go_version"},
	)

	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_stats",
			Help: "Postgres pool connections by state (max/total/idle/in_use).",
		},
		[]string{"state"},
	)

	// Only the catalog item cache exists today: cache="item", result=hit|miss|error.
	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Catalog cache lookups; each lookup counts exactly one result.",
		},
		[]string{"cache", "result"},
	)
)

func SetBuildInfo(version, commit string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}

func SetDBPoolStats(max, total, idle, inUse int32) {
	for state, v := range map[string]int32{"max": max, "total": total, "idle": idle, "in_use": inUse} {
		dbPoolConns.WithLabelValues(state).Set(float64(v))
	}
}

func IncCacheRequest(cache, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cache), norm(result)).Inc()
}
