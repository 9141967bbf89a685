package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/store"
)

func newEnabledProvider(t *testing.T, service string) *MetricsProvider {
	t.Helper()
	cfg := DefaultMetricsConfig()
	cfg.ServiceName = service
	mp, err := NewMetricsProvider(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp
}

func scrape(t *testing.T, mp *MetricsProvider) string {
	t.Helper()
	rr := httptest.NewRecorder()
	mp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	return string(body)
}

func TestDefaultMetricsConfig(t *testing.T) {
	cfg := DefaultMetricsConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "account-adaptor", cfg.ServiceName)
	assert.Equal(t, "/metrics", cfg.PrometheusPath)
}

func TestMetricsProvider_Disabled(t *testing.T) {
	cfg := &MetricsConfig{Enabled: false, ServiceName: "test-disabled"}
	mp, err := NewMetricsProvider(cfg, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		mp.RecordHTTPRequest(ctx, "GET", "/api/v1/accounts/:id", 200, 10*time.Millisecond)
		mp.RecordDBOperation(ctx, store.OpFindByID, true, 2*time.Millisecond)
		mp.RecordAccountOperation(ctx, "create", false)
	})
	assert.NoError(t, mp.ObserveStoreState(func() store.State { return store.StateReady }))
	assert.NotNil(t, mp.Meter())
	assert.NoError(t, mp.Shutdown(ctx))

	rr := httptest.NewRecorder()
	mp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsProvider_RecordDBOperation(t *testing.T) {
	mp := newEnabledProvider(t, "test-db")
	ctx := context.Background()

	mp.RecordDBOperation(ctx, store.OpInsert, true, 15*time.Millisecond)
	mp.RecordDBOperation(ctx, store.OpSave, false, 30*time.Millisecond)

	body := scrape(t, mp)
	assert.Contains(t, body, "db_operations_total")
	assert.Contains(t, body, `db_operation="insert"`)
	assert.Contains(t, body, `db_system="mongodb"`)
	assert.Contains(t, body, `status="error"`)
	assert.Contains(t, body, "db_operation_duration_seconds")
}

func TestMetricsProvider_RecordAccountOperation(t *testing.T) {
	mp := newEnabledProvider(t, "test-account-ops")

	mp.RecordAccountOperation(context.Background(), "edit_profile", true)

	body := scrape(t, mp)
	assert.Contains(t, body, "account_operations_total")
	assert.Contains(t, body, `account_operation="edit_profile"`)
}

func TestMetricsProvider_ObserveStoreState(t *testing.T) {
	mp := newEnabledProvider(t, "test-store-state")
	state := store.StateConnecting

	require.NoError(t, mp.ObserveStoreState(func() store.State { return state }))
	assert.Regexp(t, `store_connection_state(\{[^}]*\})? 1\n`, scrape(t, mp))

	state = store.StateReady
	assert.Regexp(t, `store_connection_state(\{[^}]*\})? 2\n`, scrape(t, mp))
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp := newEnabledProvider(t, "test-http")

	r := gin.New()
	r.Use(MetricsMiddleware(mp))
	r.GET("/accounts/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/accounts/abc", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	body := scrape(t, mp)
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `http_route="/accounts/:id"`)
}
