package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveAuth("signin", true)
		m.ObserveIntake("complete", true, 3)
		m.ObserveCompensation(false)
		m.ObserveStorage("local", "relocate", time.Now(), nil)
	})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(h))
}

func TestObserveCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAuth("signin", false)
	m.ObserveAuth("signin", false)
	m.ObserveIntake("complete", true, 2)
	m.ObserveIntake("request_persisted", false, 2)
	m.ObserveCompensation(true)
	m.ObserveStorage("s3", "relocate", time.Now(), errors.New("x"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthAttemptsTotal.WithLabelValues("signin", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntakeTotal.WithLabelValues("complete", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntakeTotal.WithLabelValues("request_persisted", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IntakeFilesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntakeCompensations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOperationsTotal.WithLabelValues("s3", "relocate", "failure")))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(nil)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "fine")
	})

	for _, p := range []string{"/items/1", "/items/2", "/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/items/{id}", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/ok", "200")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveAuth("signup", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `annotrack_auth_attempts_total{operation="signup",result="success"} 1`))
}
