package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_store_actions_total",
			Help: "Total number of store actions by outcome",
		},
		[]string{"action", "outcome"},
	)

	actionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_store_action_duration_seconds",
			Help:    "Store action duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	cachedOrders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "order_store_cached_orders",
			Help: "Number of orders held in the cached page",
		},
	)
)

// observe records one finished store action.
func observe(op Operation, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	actionsTotal.WithLabelValues(string(op), outcome).Inc()
	actionDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
}
