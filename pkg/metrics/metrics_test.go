package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordersUpdateCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordRefresh("real", "success", 200*time.Millisecond)
	m.RecordRefresh("real", "success", time.Second)
	m.RecordAccountFetch("skipped")
	m.RecordAuthReset()
	m.RecordExternalAPIFailure("graph_campaigns", "network_error")
	m.RecordInsight("fallback")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RefreshTicksTotal.WithLabelValues("real", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountsFetched.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthResets))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExternalAPIFailures.WithLabelValues("graph_campaigns", "network_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InsightsGenerated.WithLabelValues("fallback")))
}

func TestInFlightGauges(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncRefreshInProgress()
	m.IncHTTPRequestsInFlight()
	m.IncHTTPRequestsInFlight()
	m.DecHTTPRequestsInFlight()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshInProgress))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
