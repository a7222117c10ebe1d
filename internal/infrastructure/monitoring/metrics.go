// Package monitoring exposes Prometheus metrics for the policy engine
// and the update pipeline.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics for the shell-facing API
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Privacy engine metrics
	PolicyDecisions    *prometheus.CounterVec
	HeadersStripped    *prometheus.CounterVec
	PermissionVerdicts *prometheus.CounterVec

	// Update pipeline metrics
	UpdateChecks      *prometheus.CounterVec
	UpdateTransitions *prometheus.CounterVec
	DownloadBytes     prometheus.Counter
	DownloadDuration  prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge
}

// New creates and registers all metrics on a dedicated registry.
func New() (*Metrics, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bastion_http_requests_total",
			Help: "Total shell API requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bastion_http_request_duration_seconds",
			Help:    "Shell API request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		PolicyDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bastion_policy_decisions_total",
			Help: "Privacy policy decisions by verdict",
		}, []string{"verdict"}),
		HeadersStripped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bastion_headers_stripped_total",
			Help: "Headers removed from third-party requests",
		}, []string{"header"}),
		PermissionVerdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bastion_permission_verdicts_total",
			Help: "Permission gate verdicts",
		}, []string{"verdict"}),

		UpdateChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bastion_update_checks_total",
			Help: "Update checks by outcome",
		}, []string{"outcome"}),
		UpdateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bastion_update_transitions_total",
			Help: "Update status transitions by state",
		}, []string{"state"}),
		DownloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_update_download_bytes_total",
			Help: "Bytes downloaded for update artifacts",
		}),
		DownloadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bastion_update_download_duration_seconds",
			Help:    "Artifact download duration",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bastion_ws_connections",
			Help: "Active event-stream connections",
		}),
	}
	return m, registry
}

// RecordHTTPRequest records one shell API request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDecision records a privacy policy verdict.
func (m *Metrics) RecordDecision(verdict string) {
	if m == nil {
		return
	}
	m.PolicyDecisions.WithLabelValues(verdict).Inc()
}

// RecordStrippedHeader records a removed header by name.
func (m *Metrics) RecordStrippedHeader(header string) {
	if m == nil {
		return
	}
	m.HeadersStripped.WithLabelValues(header).Inc()
}

// RecordPermission records a permission gate verdict.
func (m *Metrics) RecordPermission(allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.PermissionVerdicts.WithLabelValues("allow").Inc()
	} else {
		m.PermissionVerdicts.WithLabelValues("deny").Inc()
	}
}

// RecordUpdateCheck records a check outcome.
func (m *Metrics) RecordUpdateCheck(outcome string) {
	if m == nil {
		return
	}
	m.UpdateChecks.WithLabelValues(outcome).Inc()
}

// RecordDownload records one completed artifact download.
func (m *Metrics) RecordDownload(bytes int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.DownloadBytes.Add(float64(bytes))
	m.DownloadDuration.Observe(duration.Seconds())
}

// RecordTransition records an update status transition.
func (m *Metrics) RecordTransition(state string) {
	if m == nil {
		return
	}
	m.UpdateTransitions.WithLabelValues(state).Inc()
}
