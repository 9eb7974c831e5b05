package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SlogLoggerMiddleware())
	r.GET("/api/v1/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/api/v1/status/:id", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	return r
}

func serve(t *testing.T, r http.Handler, buf *bytes.Buffer, path string) map[string]any {
	t.Helper()
	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestSlogLogger_PingIsQuiet(t *testing.T) {
	buf := captureLogs(t)
	line := serve(t, newEngine(), buf, "/api/v1/ping")

	assert.Equal(t, "DEBUG", line["level"])
	assert.Equal(t, "/api/v1/ping", line["route"])
	assert.EqualValues(t, http.StatusOK, line["status"])
}

func TestSlogLogger_LogsRouteTemplate(t *testing.T) {
	buf := captureLogs(t)
	line := serve(t, newEngine(), buf, "/api/v1/status/7")

	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "/api/v1/status/:id", line["route"])
	assert.NotContains(t, line, "path")
}

func TestSlogLogger_UnmatchedPath(t *testing.T) {
	buf := captureLogs(t)
	line := serve(t, newEngine(), buf, "/missing")

	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "", line["route"])
	assert.Equal(t, "/missing", line["path"])
}

func TestRateLimit_Headers(t *testing.T) {
	captureLogs(t)
	limit, err := RateLimit("1-M")
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limit)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimit_InvalidFormat(t *testing.T) {
	_, err := RateLimit("often")
	assert.Error(t, err)
}
