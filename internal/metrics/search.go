package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search tracks aggregated content lookups. A nil *Search records nothing.
type Search struct {
	roundTrips prometheus.Counter
	failures   prometheus.Counter
	discarded  prometheus.Counter
	latency    prometheus.Histogram
}

// NewSearch creates the collectors and registers them on reg when it is not nil.
func NewSearch(reg prometheus.Registerer) *Search {
	m := &Search{
		roundTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "content",
			Subsystem: "search",
			Name:      "round_trips_total",
			Help:      "Fan-out lookups issued across all collections.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "content",
			Subsystem: "search",
			Name:      "failures_total",
			Help:      "Round trips that degraded to an empty result set.",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "content",
			Subsystem: "search",
			Name:      "stale_discarded_total",
			Help:      "Completed round trips dropped because a newer query was issued.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "content",
			Subsystem: "search",
			Name:      "round_trip_seconds",
			Help:      "Latency of a full fan-out round trip.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.roundTrips, m.failures, m.discarded, m.latency)
	}
	return m
}

// ObserveRoundTrip records one finished fan-out.
func (m *Search) ObserveRoundTrip(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.roundTrips.Inc()
	m.latency.Observe(elapsed.Seconds())
	if err != nil {
		m.failures.Inc()
	}
}

// ObserveDiscarded records a stale completion.
func (m *Search) ObserveDiscarded() {
	if m == nil {
		return
	}
	m.discarded.Inc()
}
