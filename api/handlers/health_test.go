package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/looptalk/flowgraph/store"
)

// =============================================================================
// 🧪 健康检查测试
// =============================================================================

func TestHandleHealth(t *testing.T) {
	h := NewHealthHandler(zaptest.NewLogger(t))

	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHandleHealthz(t *testing.T) {
	h := NewHealthHandler(zaptest.NewLogger(t))

	w := httptest.NewRecorder()
	h.HandleHealthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleReady_NoChecks(t *testing.T) {
	h := NewHealthHandler(zaptest.NewLogger(t))

	w := httptest.NewRecorder()
	h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
}

func TestHandleReady_AllPass(t *testing.T) {
	h := NewHealthHandler(zaptest.NewLogger(t))
	h.RegisterCheck(NewPingHealthCheck("alpha", func(ctx context.Context) error { return nil }))
	h.RegisterCheck(NewPingHealthCheck("beta", func(ctx context.Context) error { return nil }))

	w := httptest.NewRecorder()
	h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	require.Len(t, status.Checks, 2)
	assert.Equal(t, "pass", status.Checks["alpha"].Status)
	assert.Equal(t, "pass", status.Checks["beta"].Status)
	assert.NotEmpty(t, status.Checks["alpha"].Latency)
}

func TestHandleReady_OneFails(t *testing.T) {
	h := NewHealthHandler(zaptest.NewLogger(t))
	h.RegisterCheck(NewPingHealthCheck("ok", func(ctx context.Context) error { return nil }))
	h.RegisterCheck(NewPingHealthCheck("broken", func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	w := httptest.NewRecorder()
	h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "pass", status.Checks["ok"].Status)
	assert.Equal(t, "fail", status.Checks["broken"].Status)
	assert.Equal(t, "connection refused", status.Checks["broken"].Message)
}

func TestStoreHealthCheck(t *testing.T) {
	st := store.NewMemoryStore()
	check := NewStoreHealthCheck("workflow_store", st)

	assert.Equal(t, "workflow_store", check.Name())
	assert.NoError(t, check.Check(context.Background()))

	// 关闭后的存储报告不健康
	require.NoError(t, st.Close())
	assert.Error(t, check.Check(context.Background()))
}

func TestHandleVersion(t *testing.T) {
	h := NewHealthHandler(zaptest.NewLogger(t))

	w := httptest.NewRecorder()
	h.HandleVersion("1.2.3", "2026-01-01", "abc123")(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
}
