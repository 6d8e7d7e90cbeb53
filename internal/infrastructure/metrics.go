package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the service.
type Metrics struct {
	RefreshesTotal   *prometheus.CounterVec
	RefreshDuration  prometheus.Histogram
	QueryEvaluations *prometheus.CounterVec
	DatasetSize      prometheus.Gauge
	WebSocketClients prometheus.Gauge
}

// NewMetrics registers the service instruments on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use their own
// registry so repeated construction does not collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RefreshesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marksheet",
			Name:      "refreshes_total",
			Help:      "Dataset refresh attempts by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marksheet",
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of a full fetch-parse-publish cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		QueryEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marksheet",
			Name:      "query_evaluations_total",
			Help:      "Debounced query evaluations by lane.",
		}, []string{"lane"}),
		DatasetSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "marksheet",
			Name:      "dataset_records",
			Help:      "Number of student records in the current snapshot.",
		}),
		WebSocketClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "marksheet",
			Name:      "websocket_clients",
			Help:      "Currently connected websocket clients.",
		}),
	}
}
