package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGinPrometheusMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("metrics-test"))
	router.POST("/reviews/:review_id/helpful", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, id := range []string{"a1", "b2", "c3"} {
		req := httptest.NewRequest(http.MethodPost, "/reviews/"+id+"/helpful", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	counter := HttpRequestsTotal.WithLabelValues("metrics-test", http.MethodPost, "/reviews/:review_id/helpful", "200")
	assert.Equal(t, float64(3), testutil.ToFloat64(counter))
}

func TestGinPrometheusMiddleware_SkipsHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("metrics-health-test"))
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	counter := HttpRequestsTotal.WithLabelValues("metrics-health-test", http.MethodGet, "/health", "200")
	assert.Equal(t, float64(0), testutil.ToFloat64(counter))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/reviews/job/:job_id", normalizePath("/reviews/job/:job_id", "/reviews/job/1"))
	assert.Equal(t, "unmatched", normalizePath("", "/nope/123"))
	assert.Equal(t, "unknown", normalizePath("", ""))
}

func TestRecordHelpfulToggle(t *testing.T) {
	before := testutil.ToFloat64(ReviewHelpfulToggles.WithLabelValues("added"))
	RecordHelpfulToggle(true)
	assert.Equal(t, before+1, testutil.ToFloat64(ReviewHelpfulToggles.WithLabelValues("added")))
}
