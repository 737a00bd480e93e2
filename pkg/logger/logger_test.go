package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriter_WritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("reviews-service", "debug", &buf)

	Info().Str("review_id", "r-1").Msg("review created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reviews-service", entry["service"])
	assert.Equal(t, "r-1", entry["review_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestInitWithWriter_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("reviews-service", "nonsense", &buf)

	Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	Info().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestGinLoggerMiddleware_GeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("reviews-service", "info", &buf)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinLoggerMiddleware())
	router.GET("/reviews/job/:job_id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/reviews/job/42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, w.Header().Get(RequestIDHeader), entry["request_id"])
}

func TestGinLoggerMiddleware_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("reviews-service", "info", &buf)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinLoggerMiddleware())
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
}
