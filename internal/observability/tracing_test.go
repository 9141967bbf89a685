package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "account-adaptor", cfg.ServiceName)
	assert.Equal(t, "stdout", cfg.ExporterType)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.True(t, cfg.OTLPInsecure)
	assert.Equal(t, 1.0, cfg.SamplingRate)
}

func TestNewTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(&TracingConfig{ServiceName: "test-disabled"}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracingProvider_Exporters(t *testing.T) {
	tests := []struct {
		name     string
		exporter string
		rate     float64
		wantErr  bool
	}{
		{name: "stdout", exporter: "stdout", rate: 1.0},
		{name: "empty means stdout", exporter: "", rate: 0},
		{name: "otlp grpc", exporter: "otlp-grpc", rate: 0.5},
		{name: "otlp http", exporter: "otlp-http", rate: 0.5},
		{name: "unknown", exporter: "jaeger", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTracingConfig()
			cfg.Enabled = true
			cfg.ServiceName = "test-" + tt.name
			cfg.ExporterType = tt.exporter
			cfg.SamplingRate = tt.rate

			tp, err := NewTracingProvider(cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, tp.Tracer())
			_ = tp.Shutdown(context.Background())
		})
	}
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1.0).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestRecordSpanError(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordSpanError(context.Background(), errors.New("test error"))
	})
}

func TestTracingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r := gin.New()
	r.Use(TracingMiddleware("test"))
	r.GET("/accounts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/accounts/abc", "/broken"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "/accounts/:id", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, "/broken", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestAttrKeys(t *testing.T) {
	assert.Equal(t, "http.method", string(AttrHTTPMethod))
	assert.Equal(t, "http.route", string(AttrHTTPRoute))
	assert.Equal(t, "db.system", string(AttrDBSystem))
	assert.Equal(t, "db.operation", string(AttrDBOperation))
	assert.Equal(t, "account.id", string(AttrAccountID))
	assert.Equal(t, "account.operation", string(AttrAccountOp))
}
