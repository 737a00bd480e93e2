package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(ctx context.Context) error { return nil }

func failing(msg string) PingerFunc {
	return func(ctx context.Context) error { return errors.New(msg) }
}

func serve(h *HealthCheckHandler, path string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthCheck_AllHealthy(t *testing.T) {
	w := serve(NewHealthCheckHandler(PingerFunc(ok), PingerFunc(ok)), "/health")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["database"])
	assert.Equal(t, "healthy", resp.Checks["redis"])
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	w := serve(NewHealthCheckHandler(failing("connection refused"), PingerFunc(ok)), "/health")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks["database"], "connection refused")
}

func TestHealthCheck_RedisDownIsDegraded(t *testing.T) {
	w := serve(NewHealthCheckHandler(PingerFunc(ok), failing("i/o timeout")), "/health")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
}

func TestReadiness(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(NewHealthCheckHandler(PingerFunc(ok), failing("down")), "/health/readiness").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(NewHealthCheckHandler(failing("down"), PingerFunc(ok)), "/health/readiness").Code)
}

func TestLiveness(t *testing.T) {
	w := serve(NewHealthCheckHandler(failing("down"), failing("down")), "/health/liveness")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", w.Body.String())
}
