package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"uptask/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := metrics.New()

	m.ObserveRequest(http.MethodPost, "/api/auth/login", http.StatusOK, 20*time.Millisecond)
	m.TokenIssued("confirmation")
	m.TokenIssued("confirmation")
	m.TokensRemoved(3)
	m.TokensRemoved(0)
	m.NotificationFailed("reset")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/api/auth/login", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokensIssued.WithLabelValues("confirmation")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TokensSwept))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("reset")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.TokenIssued("reset")
		m.TokensRemoved(1)
		m.NotificationFailed("confirmation")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.TokenIssued("reset")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `uptask_tokens_issued_total{purpose="reset"} 1`)
}
