package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jrjohn/arcana-account-adaptor/internal/dto/response"
	apperrors "github.com/jrjohn/arcana-account-adaptor/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generates new request ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		headerID := w.Header().Get(RequestIDHeader)
		if len(headerID) != 36 {
			t.Errorf("RequestID = %q, want a UUID", headerID)
		}
		if w.Body.String() != headerID {
			t.Errorf("Body = %v, header = %v", w.Body.String(), headerID)
		}
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "custom-request-id")
		router.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); got != "custom-request-id" {
			t.Errorf("RequestID = %v, want custom-request-id", got)
		}
	})

	t.Run("replaces oversized request ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
		router.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); len(got) != 36 {
			t.Errorf("RequestID = %q, want a fresh UUID", got)
		}
	})
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"exists", "test-id", "test-id"},
		{"missing", nil, ""},
		{"wrong type", 123, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			if tt.value != nil {
				c.Set(RequestIDKey, tt.value)
			}
			if got := GetRequestID(c); got != tt.want {
				t.Errorf("GetRequestID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		level   zapcore.Level
		message string
	}{
		{"success", http.StatusOK, zapcore.InfoLevel, "request"},
		{"client error", http.StatusNotFound, zapcore.WarnLevel, "client error"},
		{"server error", http.StatusInternalServerError, zapcore.ErrorLevel, "server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			router := gin.New()
			router.Use(RequestID(), Logger(zap.New(core)))
			router.GET("/accounts/:id", func(c *gin.Context) {
				c.Status(tt.status)
			})

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/accounts/abc", nil))

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("got %d log entries, want 1", len(entries))
			}
			e := entries[0]
			if e.Level != tt.level || e.Message != tt.message {
				t.Errorf("entry = %v %q, want %v %q", e.Level, e.Message, tt.level, tt.message)
			}
			if e.LoggerName != "http" {
				t.Errorf("LoggerName = %q, want http", e.LoggerName)
			}
			ctx := e.ContextMap()
			if ctx["route"] != "/accounts/:id" {
				t.Errorf("route = %v, want /accounts/:id", ctx["route"])
			}
			if ctx["request_id"] == "" {
				t.Error("request_id should be logged")
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(RequestID(), Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})
	router.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	t.Run("recovers from panic", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %v, want %v", w.Code, http.StatusInternalServerError)
		}
		var body response.ApiResponse[any]
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if body.Code != apperrors.CodeInternalError {
			t.Errorf("Code = %v, want %v", body.Code, apperrors.CodeInternalError)
		}
		if body.RequestID != w.Header().Get(RequestIDHeader) {
			t.Errorf("RequestID = %v, want %v", body.RequestID, w.Header().Get(RequestIDHeader))
		}
		if logs.FilterMessage("panic recovered").Len() != 1 {
			t.Error("panic should be logged")
		}
	})

	t.Run("normal request", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

		if w.Code != http.StatusOK {
			t.Errorf("Status = %v, want %v", w.Code, http.StatusOK)
		}
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		cfg         CORSConfig
		method      string
		origin      string
		status      int
		allowOrigin string
	}{
		{"wildcard", DefaultCORSConfig(), http.MethodGet, "http://example.com", http.StatusOK, "*"},
		{"no origin", DefaultCORSConfig(), http.MethodGet, "", http.StatusOK, ""},
		{"preflight", DefaultCORSConfig(), http.MethodOptions, "http://example.com", http.StatusNoContent, "*"},
		{
			"listed origin with credentials",
			CORSConfig{AllowOrigins: []string{"https://app.example.com"}, AllowCredentials: true},
			http.MethodGet, "https://app.example.com", http.StatusOK, "https://app.example.com",
		},
		{
			"unlisted origin",
			CORSConfig{AllowOrigins: []string{"https://app.example.com"}},
			http.MethodGet, "https://evil.example.com", http.StatusOK, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.cfg))
			router.GET("/accounts", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/accounts", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("Status = %v, want %v", w.Code, tt.status)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.allowOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.allowOrigin)
			}
		})
	}

	t.Run("preflight max age", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS(DefaultCORSConfig()))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/accounts", nil)
		req.Header.Set("Origin", "http://example.com")
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Max-Age"); got != "43200" {
			t.Errorf("Max-Age = %q, want 43200", got)
		}
	})
}
