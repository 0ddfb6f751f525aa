package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// OAuth connection flows
	RecordOAuthFlow(provider, stage, outcome string)

	// Activity syncs
	RecordSync(provider, status string, duration time.Duration, imported int)

	// Gauge setters (for periodic updates)
	SetActiveConnectionsCount(provider string, count int)
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// OAuth Flow Metrics
	OAuthFlowTotal *prometheus.CounterVec

	// Sync Metrics
	SyncsTotal             *prometheus.CounterVec
	SyncDuration           *prometheus.HistogramVec
	SyncActivitiesImported *prometheus.CounterVec

	// Connection Metrics
	ConnectionsActive *prometheus.GaugeVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns the metrics recorder for the process. When disabled it
// returns a no-op recorder; otherwise the Prometheus-backed singleton.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	m := &Metrics{
		// OAuth Flow Metrics
		OAuthFlowTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_flow_total",
				Help: "Total number of OAuth flow stage outcomes",
			},
			[]string{
				"provider",
				"stage",
				"outcome",
			}, // stage: init, callback; outcome: success, error
		),

		// Sync Metrics
		SyncsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syncs_total",
				Help: "Total number of completed sync attempts",
			},
			[]string{"provider", "status"}, // status: success, partial, failed
		),
		SyncDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "sync_duration_seconds",
				Help: "Time taken to complete one sync attempt",
				Buckets: []float64{
					0.5,
					1,
					2.5,
					5,
					10,
					30,
					60,
					120,
					300,
				},
			},
			[]string{"provider"},
		),
		SyncActivitiesImported: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_activities_imported_total",
				Help: "Total number of activities created or updated by syncs",
			},
			[]string{"provider"},
		),

		// Connection Metrics
		ConnectionsActive: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "provider_connections_active",
				Help: "Current number of active provider connections",
			},
			[]string{"provider"},
		),

		// HTTP Request Metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
	}

	return m
}

// RecordOAuthFlow records the outcome of one OAuth flow stage
func (m *Metrics) RecordOAuthFlow(provider, stage, outcome string) {
	m.OAuthFlowTotal.WithLabelValues(provider, stage, outcome).Inc()
}

// RecordSync records one completed sync attempt
func (m *Metrics) RecordSync(provider, status string, duration time.Duration, imported int) {
	m.SyncsTotal.WithLabelValues(provider, status).Inc()
	m.SyncDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if imported > 0 {
		m.SyncActivitiesImported.WithLabelValues(provider).Add(float64(imported))
	}
}

// SetActiveConnectionsCount updates the active-connections gauge for a provider
func (m *Metrics) SetActiveConnectionsCount(provider string, count int) {
	m.ConnectionsActive.WithLabelValues(provider).Set(float64(count))
}
