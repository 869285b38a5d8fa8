package handlers

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

	"backoffice/internal/core/identifier"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthEngine(h *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ready", h.Ready)
	r.GET("/info", h.Info)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthHandler_Ready(t *testing.T) {
	h := &HealthHandler{db: pingFunc(func(context.Context) error { return nil })}
	w := get(healthEngine(h), "/ready")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
}

func TestHealthHandler_ReadyDegradedHidesCause(t *testing.T) {
	h := &HealthHandler{db: pingFunc(func(context.Context) error {
		return errors.New("dial tcp 10.0.0.5:5432: connection refused")
	})}
	w := get(healthEngine(h), "/ready")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestHealthHandler_Info(t *testing.T) {
	w := get(healthEngine(NewHealthHandler(nil, true)), "/info")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		App         string `json:"app"`
		Identifiers struct {
			Families   []string `json:"families"`
			Watermarks bool     `json:"watermarks"`
		} `json:"identifiers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "backoffice", body.App)
	assert.Len(t, body.Identifiers.Families, len(identifier.Families))
	assert.True(t, body.Identifiers.Watermarks)
}
