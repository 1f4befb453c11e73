package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain metrics.
	InvitationTransitionsTotal *prometheus.CounterVec
	AuthorizationDenialsTotal  *prometheus.CounterVec
	AuthFailuresTotal          *prometheus.CounterVec

	// Cache metrics.
	CacheLookupsTotal *prometheus.CounterVec
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projectcollab_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "projectcollab_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		InvitationTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projectcollab_invitation_transitions_total",
			Help: "Invitation state changes by target status.",
		}, []string{"status"}),

		AuthorizationDenialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projectcollab_authorization_denials_total",
			Help: "Requests refused by the permission evaluator.",
		}, []string{"action"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projectcollab_auth_failures_total",
			Help: "Total number of authentication failures.",
		}, []string{"auth_type"}),

		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projectcollab_cache_lookups_total",
			Help: "Project cache lookups by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.InvitationTransitionsTotal,
		m.AuthorizationDenialsTotal,
		m.AuthFailuresTotal,
		m.CacheLookupsTotal,
	)

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one finished request.
func (m *Metrics) ObserveHTTPRequest(method, pathPattern string, statusCode int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(seconds)
}

// IncInvitationTransition counts an invitation reaching status.
func (m *Metrics) IncInvitationTransition(status string) {
	if m == nil {
		return
	}
	m.InvitationTransitionsTotal.WithLabelValues(status).Inc()
}

// IncAuthorizationDenial counts a refused action.
func (m *Metrics) IncAuthorizationDenial(action string) {
	if m == nil {
		return
	}
	m.AuthorizationDenialsTotal.WithLabelValues(action).Inc()
}

// IncAuthFailure increments the auth failure counter for the given auth type.
func (m *Metrics) IncAuthFailure(authType string) {
	if m == nil {
		return
	}
	m.AuthFailuresTotal.WithLabelValues(authType).Inc()
}

// IncCacheLookup counts a cache lookup; result is "hit", "miss" or "error".
func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}
