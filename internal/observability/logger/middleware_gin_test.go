package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGinMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		Logger: zap.New(core),
		ErrorClassifier: func(error) (string, string) {
			return "validation_error", "invalid_id"
		},
	}))
	r.GET("/rest/v1/invoices/:id", func(c *gin.Context) {
		_ = c.Error(errors.New("bad id"))
		c.Status(http.StatusBadRequest)
	})

	req := httptest.NewRequest(http.MethodGet, "/rest/v1/invoices/abc?x=1", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
	entries := logs.FilterMessage("http.request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/rest/v1/invoices/:id", fields["route"])
	assert.Equal(t, "x=1", fields["query"])
	assert.Equal(t, "invalid_id", fields["error_code"])
	assert.Equal(t, "req-42", fields["request_id"])
	assert.NotContains(t, fields, "error")
}

func TestGinMiddlewareGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{Logger: zap.NewNop()}))
	r.GET("/rest/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rest/health", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
}

func TestRequestLevel(t *testing.T) {
	cases := []struct {
		route     string
		status    int
		errorType string
		want      zapcore.Level
	}{
		{"/rest/health", http.StatusInternalServerError, "", zapcore.DebugLevel},
		{"/rest/v1/invoices", http.StatusOK, "", zapcore.InfoLevel},
		{"/rest/v1/invoices/:id", http.StatusNotFound, "not_found", zapcore.DebugLevel},
		{"/rest/v1/invoices", http.StatusBadRequest, "validation_error", zapcore.WarnLevel},
		{"/rest/v1/invoices", http.StatusInternalServerError, "internal_error", zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, requestLevel(tc.route, tc.status, tc.errorType), "%s %d", tc.route, tc.status)
	}
}
