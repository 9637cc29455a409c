package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func serveHealth(t *testing.T, h *HealthChecker) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.Handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthPass(t *testing.T) {
	h := &HealthChecker{deps: map[string]pinger{
		"database": stubPinger{},
		"redis":    stubPinger{},
	}}

	code, body := serveHealth(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pass", body["status"])
}

func TestHealthReportsFailingDependency(t *testing.T) {
	h := &HealthChecker{deps: map[string]pinger{
		"database": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
	}}

	code, body := serveHealth(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	checks, ok := body["checks"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pass", checks["database"])
	assert.Contains(t, checks["redis"], "connection refused")
}
