// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "annotrack"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AuthAttemptsTotal *prometheus.CounterVec

	IntakeTotal         *prometheus.CounterVec
	IntakeFilesTotal    prometheus.Counter
	IntakeCompensations *prometheus.CounterVec

	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on registry. A nil registry
// gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Signup and signin attempts by outcome",
			},
			[]string{"operation", "result"},
		),
		IntakeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intake_total",
				Help:      "Request intake attempts by the stage reached",
			},
			[]string{"stage", "result"},
		),
		IntakeFilesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intake_files_total",
				Help:      "Files relocated into durable storage",
			},
		),
		IntakeCompensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intake_compensations_total",
				Help:      "Compensating actions run after a failed intake",
			},
			[]string{"result"},
		),
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Durable storage operations",
			},
			[]string{"backend", "operation", "result"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_operation_duration_seconds",
				Help:      "Durable storage operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthAttemptsTotal,
		m.IntakeTotal,
		m.IntakeFilesTotal,
		m.IntakeCompensations,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
	)

	return m
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveAuth counts a signup or signin attempt.
func (m *Metrics) ObserveAuth(operation string, ok bool) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.WithLabelValues(operation, result(ok)).Inc()
}

// ObserveIntake counts an intake that stopped at stage.
func (m *Metrics) ObserveIntake(stage string, ok bool, files int) {
	if m == nil {
		return
	}
	m.IntakeTotal.WithLabelValues(stage, result(ok)).Inc()
	if ok {
		m.IntakeFilesTotal.Add(float64(files))
	}
}

func (m *Metrics) ObserveCompensation(ok bool) {
	if m == nil {
		return
	}
	m.IntakeCompensations.WithLabelValues(result(ok)).Inc()
}

// ObserveStorage records one storage operation started at start.
func (m *Metrics) ObserveStorage(backend, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StorageOperationsTotal.WithLabelValues(backend, operation, result(err == nil)).Inc()
	m.StorageOperationDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}

// Middleware instruments requests. Routes are labelled with the chi route
// pattern so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
