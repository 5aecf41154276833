// Package metrics exports engine and HTTP activity as Prometheus metrics.
package metrics

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/event"
)

const namespace = "bazaar"

// Metrics implements engine.Recorder on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	calls    *prometheus.CounterVec
	events   *prometheus.CounterVec
	custody  prometheus.Gauge
	requests *prometheus.CounterVec
	limited  prometheus.Counter
}

var _ engine.Recorder = (*Metrics)(nil)

// New creates the metric set. Go runtime and process collectors are
// registered alongside it.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Executed calls by operation and outcome code.",
		}, []string{"op", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Committed ledger events by kind.",
		}, []string{"kind"}),
		custody: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "custody_balance",
			Help:      "Native value held in market custody.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		limited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "HTTP requests rejected by the per-caller rate limiter.",
		}),
	}
	m.registry.MustRegister(
		m.calls,
		m.events,
		m.custody,
		m.requests,
		m.limited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// CallCompleted counts one executed call.
func (m *Metrics) CallCompleted(op engine.Op, outcome string) {
	m.calls.WithLabelValues(string(op), outcome).Inc()
}

// EventAppended counts one committed event.
func (m *Metrics) EventAppended(kind event.Kind) {
	m.events.WithLabelValues(string(kind)).Inc()
}

// CustodyChanged sets the custody gauge. Balances beyond float64 precision
// are rounded.
func (m *Metrics) CustodyChanged(balance uint256.Int) {
	f, _ := new(big.Float).SetInt(balance.ToBig()).Float64()
	m.custody.Set(f)
}

// RequestServed counts one HTTP response.
func (m *Metrics) RequestServed(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// RequestLimited counts one throttled HTTP request.
func (m *Metrics) RequestLimited() {
	m.limited.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
