package checkout

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Materialized prometheus.Counter
	Duplicates   prometheus.Counter
	Acknowledged *prometheus.CounterVec
	Rejections   *prometheus.CounterVec
}

// NewMetrics builds the checkout counters and registers them with reg when it
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Materialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "checkout",
			Name:      "orders_materialized_total",
			Help:      "Orders created from completed checkout sessions.",
		}),
		Duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "checkout",
			Name:      "duplicate_events_total",
			Help:      "Completed-session events for sessions that already have an order.",
		}),
		Acknowledged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "checkout",
			Name:      "events_acknowledged_total",
			Help:      "Verified webhook events acknowledged, by event type.",
		}, []string{"type"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "checkout",
			Name:      "rejections_total",
			Help:      "Rejected webhook deliveries by stage and kind.",
		}, []string{"stage", "kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.Materialized, m.Duplicates, m.Acknowledged, m.Rejections)
	}
	return m
}
