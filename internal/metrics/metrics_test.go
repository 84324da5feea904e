package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RateLimitRejections,
		MenusSavedTotal,
		MenusDeletedTotal,
		PublishRejectedTotal,
		LastUsedCacheTotal,
		LoginsTotal,
	}
	for _, c := range collectors {
		assert.NotNil(t, c)
	}
}

func TestMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/v0/menus/:week", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/v0/menus/:week", "GET", "204"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v0/menus/05-01-2026", nil))

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/v0/menus/:week", "GET", "204"))
	assert.Equal(t, before+1, after)
}

func TestHandler_ExposesMenuMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	MenusSavedTotal.WithLabelValues("create", "draft").Inc()

	r := gin.New()
	r.GET("/metrics", Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "menus_saved_total"))
}
