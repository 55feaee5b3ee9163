package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values shared by the collectors below.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// fetchTotal counts upstream compound summary requests by outcome
	// (ok, status, transport).
	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdt_fetch_total",
			Help: "Total number of compound summary requests sent upstream.",
		},
		[]string{"outcome"},
	)

	// fetchLat records upstream request duration in seconds, pacing excluded.
	fetchLat = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cdt_fetch_duration_seconds",
			Help:    "Duration of compound summary requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// storeOps counts cache store operations by operation and outcome.
	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdt_store_operations_total",
			Help: "Total number of cache store operations.",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(fetchTotal, fetchLat, storeOps)
}

// ObserveFetch records one upstream request.
func ObserveFetch(outcome string, d time.Duration) {
	fetchTotal.WithLabelValues(outcome).Inc()
	fetchLat.Observe(d.Seconds())
}

// ObserveStore records one cache store operation. A nil err counts as ok.
func ObserveStore(op string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	storeOps.WithLabelValues(op, outcome).Inc()
}

// WriteTextfile dumps the default registry to path in the text exposition
// format, for collection by a node exporter textfile collector. An empty
// path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// FetchCounter returns the cdt_fetch_total child for outcome.
func FetchCounter(outcome string) prometheus.Counter {
	return fetchTotal.WithLabelValues(outcome)
}

// StoreCounter returns the cdt_store_operations_total child for op and outcome.
func StoreCounter(op, outcome string) prometheus.Counter {
	return storeOps.WithLabelValues(op, outcome)
}
