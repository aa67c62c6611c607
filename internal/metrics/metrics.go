// Package metrics holds the Prometheus collectors for the API.
//
// A nil *Metrics is valid and records nothing, so services can be built
// without a registry in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	TokensIssued        *prometheus.CounterVec
	TokensSwept         prometheus.Counter
	NotificationsFailed *prometheus.CounterVec
}

// New creates a registry with the Go and process collectors plus the
// application metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uptask_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uptask_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TokensIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uptask_tokens_issued_total",
				Help: "Total number of one-time tokens issued by purpose",
			},
			[]string{"purpose"},
		),
		TokensSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uptask_tokens_swept_total",
			Help: "Total number of expired tokens removed by the sweeper",
		}),
		NotificationsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uptask_notifications_failed_total",
				Help: "Total number of notification deliveries that failed by kind",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.TokensIssued, m.TokensSwept, m.NotificationsFailed)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) TokenIssued(purpose string) {
	if m == nil {
		return
	}
	m.TokensIssued.WithLabelValues(purpose).Inc()
}

func (m *Metrics) TokensRemoved(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.TokensSwept.Add(float64(n))
}

func (m *Metrics) NotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.NotificationsFailed.WithLabelValues(kind).Inc()
}
