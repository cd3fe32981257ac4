package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus instruments
type Metrics struct {
	CyclesTotal           prometheus.Counter
	CycleDuration         prometheus.Histogram
	RecordsConsidered     *prometheus.CounterVec
	OpportunitiesDetected prometheus.Gauge
	DegradedRefreshes     prometheus.Counter
}

// New registers and returns the service metrics
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "arb_detection_cycles_total",
			Help: "Number of completed detection cycles.",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "arb_detection_cycle_duration_seconds",
			Help:    "Wall time of a full detection cycle including collection.",
			Buckets: prometheus.DefBuckets,
		}),
		RecordsConsidered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arb_detection_records_considered_total",
			Help: "Outcome records considered per source.",
		}, []string{"source"}),
		OpportunitiesDetected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arb_detection_opportunities",
			Help: "Opportunities found by the most recent cycle.",
		}),
		DegradedRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "arb_detection_degraded_refreshes_total",
			Help: "Refreshes that failed or timed out, leaving the previous result in place.",
		}),
	}
}
