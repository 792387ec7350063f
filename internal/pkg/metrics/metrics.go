package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "photogo"

// Metrics holds the service's counters and histograms. A nil *Metrics is a no-op.
type Metrics struct {
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	transitions      *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	activeWizards    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "transitions_total",
			Help:      "Wizard step transitions by outcome",
		}, []string{"from", "to", "result"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storefront",
			Name:      "requests_total",
			Help:      "Calls to the storefront API by operation and outcome",
		}, []string{"operation", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storefront",
			Name:      "request_duration_seconds",
			Help:      "Latency of storefront calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		activeWizards: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "active_sessions",
			Help:      "Wizard sessions currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.httpRequests, m.httpLatency, m.transitions, m.upstreamRequests, m.upstreamLatency, m.activeWizards)
	return m
}

func (m *Metrics) ObserveHTTP(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) ObserveTransition(from, to, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to, result).Inc()
}

func (m *Metrics) ObserveUpstream(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(operation, outcome).Inc()
	m.upstreamLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) SetActiveWizards(n int) {
	if m == nil {
		return
	}
	m.activeWizards.Set(float64(n))
}
