// Package metrics defines the Prometheus collectors for the shift engine.
// It is the single source of truth for metric names, labels and help
// strings.
//
// Metrics owns its registry so tests and multiple servers in one process
// never collide on the default one. Metrics implements engine.Observer and
// provides an HTTP middleware and the /metrics handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/shift-engine/engine"
	"github.com/warp/shift-engine/logging"
)

const namespace = "shift_engine"

type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	// OperationsTotal counts engine mutations.
	// Labels:
	//   - operation: "add_user", "confirm_selection", "delete_user", ...
	//   - result:    "ok" or an engine.ErrorKind label
	OperationsTotal *prometheus.CounterVec

	// EventsCreatedTotal counts shifts committed.
	EventsCreatedTotal prometheus.Counter

	// EventsRemovedTotal counts shifts removed.
	// Label:
	//   - reason: "manual" or "cascade"
	EventsRemovedTotal *prometheus.CounterVec

	// Users is the directory size after the last successful mutation.
	Users prometheus.Gauge

	// HTTPRequestsTotal and HTTPRequestDuration are labelled by method,
	// chi route pattern and status code.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var _ engine.Observer = (*Metrics)(nil)

// New registers all collectors, plus the Go runtime collectors, on a fresh
// registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		OperationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of engine mutations, by operation and result.",
			},
			[]string{"operation", "result"},
		),
		EventsCreatedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_created_total",
				Help:      "Total number of calendar events created.",
			},
		),
		EventsRemovedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_removed_total",
				Help:      "Total number of calendar events removed, by reason (manual/cascade).",
			},
			[]string{"reason"},
		),
		Users: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "users",
				Help:      "Current number of users in the directory.",
			},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}

// Registry exposes the collectors for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler { return m.handler }

// =============================================================================
// ENGINE OBSERVER
// =============================================================================

func (m *Metrics) OperationCompleted(op string, err error) {
	result := "ok"
	if err != nil {
		result = engine.ErrorKind(err)
	}
	m.OperationsTotal.WithLabelValues(op, result).Inc()
}

func (m *Metrics) EventsCreated(n int) {
	m.EventsCreatedTotal.Add(float64(n))
}

func (m *Metrics) EventsRemoved(reason string, n int) {
	m.EventsRemovedTotal.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) UsersChanged(total int) {
	m.Users.Set(float64(total))
}

// =============================================================================
// HTTP
// =============================================================================

// Middleware records request count and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{r.Method, logging.RoutePattern(r), strconv.Itoa(status)}
		m.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		m.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}
