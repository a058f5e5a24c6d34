package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle results used as the "result" label of CyclesTotal.
const (
	ResultNoChange     = "no_change"
	ResultNotified     = "notified"
	ResultFetchFailed  = "fetch_failed"
	ResultStoreFailed  = "store_failed"
	ResultNotifyFailed = "notify_failed"
	ResultCorrupted    = "corrupted"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec
	NewListingsTotal   prometheus.Counter
	NotificationsTotal *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
	SkippedCycles      prometheus.Counter
	ErrorsCount        *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics registered on reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "The total number of journey cycles by result",
		}, []string{"result"}),
		NewListingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_listings_total",
			Help:      "The total number of listings reported as new",
		}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "The total number of notification dispatch attempts by result",
		}, []string{"result"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time taken by one fetch-diff-notify-persist cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		SkippedCycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_cycles_total",
			Help:      "Triggers skipped because the journey still had a cycle in flight",
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
