package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/metrics"
)

func TestSearchCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewSearch(reg)

	m.ObserveRoundTrip(10*time.Millisecond, nil)
	m.ObserveRoundTrip(20*time.Millisecond, errors.New("down"))
	m.ObserveDiscarded()

	n, err := testutil.GatherAndCount(reg,
		"content_search_round_trips_total",
		"content_search_failures_total",
		"content_search_stale_discarded_total",
		"content_search_round_trip_seconds",
	)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		if c := mf.GetMetric()[0].GetCounter(); c != nil {
			values[mf.GetName()] = c.GetValue()
		}
	}
	require.Equal(t, 2.0, values["content_search_round_trips_total"])
	require.Equal(t, 1.0, values["content_search_failures_total"])
	require.Equal(t, 1.0, values["content_search_stale_discarded_total"])
}

func TestNilSearchIsNoop(t *testing.T) {
	var m *metrics.Search
	require.NotPanics(t, func() {
		m.ObserveRoundTrip(time.Second, nil)
		m.ObserveDiscarded()
	})
}
