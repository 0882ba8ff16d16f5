package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthy() Pinger { return pingFunc(func(context.Context) error { return nil }) }

func TestLivenessHandler(t *testing.T) {
	hc := NewHealthCheck(nil, zap.NewNop())
	w := httptest.NewRecorder()

	hc.LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Run("all dependencies healthy", func(t *testing.T) {
		hc := NewHealthCheck(map[string]Pinger{"postgres": healthy(), "redis": healthy(), "cache": healthy()}, zap.NewNop())
		w := httptest.NewRecorder()

		hc.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, "healthy", resp.Checks["redis"])
	})

	t.Run("one dependency down", func(t *testing.T) {
		down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
		hc := NewHealthCheck(map[string]Pinger{"postgres": down, "redis": healthy()}, zap.NewNop())
		w := httptest.NewRecorder()

		hc.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "unhealthy", resp.Checks["postgres"])
		assert.Equal(t, "healthy", resp.Checks["redis"])
		assert.Contains(t, resp.Error, "postgres")
	})
}
