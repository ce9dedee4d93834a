package monitor

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBusinessMetrics(t *testing.T) {
	m := NewBusinessMetrics(prometheus.NewRegistry())

	m.ObserveSubmission("sealed")
	m.ObserveSubmission("sealed")
	m.ObserveSubmission("timeout")
	m.ObserveSweep("closed")
	m.SetBalance("0xf8d6e0586b0a20c7", 12.5)
	m.ObservePollAttempts(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("sealed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepResultsTotal.WithLabelValues("closed")))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.AccountBalance.WithLabelValues("0xf8d6e0586b0a20c7")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SealPollAttempts))
}

func TestNilBusinessMetrics(t *testing.T) {
	var m *BusinessMetrics
	assert.NotPanics(t, func() {
		m.ObserveSubmission("sealed")
		m.ObservePollAttempts(1)
		m.ObserveSweep("failed")
		m.ObserveSweepDuration(0.1)
		m.SetBalance("0x01", 1)
	})
}

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/api/v1/proposals/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/proposals/:id", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/proposals/5", nil))

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/proposals/:id", "200"))
	assert.Equal(t, before+1, after)
}
