package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK       = "ok"
	ResultDegraded = "degraded"
)

var (
	EnrichmentCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gearcheck",
		Name:      "enrichment_calls_total",
		Help:      "Enrichment operations by operation and result (ok or degraded).",
	}, []string{"op", "result"})

	EnrichmentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gearcheck",
		Name:      "enrichment_duration_seconds",
		Help:      "Latency of enrichment operations.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
	}, []string{"op"})

	EnrichmentInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gearcheck",
		Name:      "enrichment_in_flight",
		Help:      "Gear items currently being enriched.",
	})
)

// Observe записывает результат и длительность одной операции.
func Observe(op string, started time.Time, err error) {
	result := ResultOK
	if err != nil {
		result = ResultDegraded
	}
	EnrichmentCalls.WithLabelValues(op, result).Inc()
	EnrichmentDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
