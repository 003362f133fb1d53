package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Refresh metrics
	RefreshTicksTotal *prometheus.CounterVec
	RefreshDuration   *prometheus.HistogramVec
	RefreshInProgress prometheus.Gauge
	AccountsFetched   *prometheus.CounterVec
	AuthResets        prometheus.Counter

	// External API metrics
	ExternalAPICalls    *prometheus.CounterVec
	ExternalAPIDuration *prometheus.HistogramVec
	ExternalAPIFailures *prometheus.CounterVec

	// Insight metrics
	InsightsGenerated *prometheus.CounterVec
}

// New registers every collector on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		RefreshTicksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_refresh_ticks_total",
				Help: "Total number of dashboard metrics ticks",
			},
			[]string{"mode", "outcome"},
		),

		RefreshDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_refresh_duration_seconds",
				Help:    "Dashboard refresh duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"mode"},
		),

		RefreshInProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_refresh_in_progress",
				Help: "Number of dashboard refreshes currently in flight",
			},
		),

		AccountsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_accounts_fetched_total",
				Help: "Ad accounts fetched during aggregate refreshes",
			},
			[]string{"status"},
		),

		AuthResets: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dashboard_auth_resets_total",
				Help: "Number of credential resets caused by authentication failures",
			},
		),

		ExternalAPICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_calls_total",
				Help: "Total number of external API calls",
			},
			[]string{"api", "status"},
		),

		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "external_api_duration_seconds",
				Help:    "External API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api"},
		),

		ExternalAPIFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_failures_total",
				Help: "Total number of external API failures",
			},
			[]string{"api", "error_type"},
		),

		InsightsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_insights_total",
				Help: "AI summary requests by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Refresh tick metrics
func (m *Metrics) RecordRefresh(mode, outcome string, duration time.Duration) {
	m.RefreshTicksTotal.WithLabelValues(mode, outcome).Inc()
	m.RefreshDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// Per-account outcome inside an aggregate refresh
func (m *Metrics) RecordAccountFetch(status string) {
	m.AccountsFetched.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordAuthReset() {
	m.AuthResets.Inc()
}

// External API call metrics
func (m *Metrics) RecordExternalAPICall(api, status string, duration time.Duration) {
	m.ExternalAPICalls.WithLabelValues(api, status).Inc()
	m.ExternalAPIDuration.WithLabelValues(api).Observe(duration.Seconds())
}

// External API failure metrics
func (m *Metrics) RecordExternalAPIFailure(api, errorType string) {
	m.ExternalAPIFailures.WithLabelValues(api, errorType).Inc()
}

func (m *Metrics) RecordInsight(outcome string) {
	m.InsightsGenerated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRefreshInProgress() {
	m.RefreshInProgress.Inc()
}

func (m *Metrics) DecRefreshInProgress() {
	m.RefreshInProgress.Dec()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
