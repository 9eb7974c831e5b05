package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// quietRoutes are polled by health checks and only logged at DEBUG.
var quietRoutes = map[string]bool{
	"/api/v1/ping": true,
}

// SlogLoggerMiddleware logs one line per request. Websocket sessions are
// logged once when the upgrade completes, with the route they matched.
func SlogLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		statusCode := c.Writer.Status()

		attrs := []slog.Attr{
			slog.Int("status", statusCode),
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
		}
		if route == "" {
			attrs = append(attrs, slog.String("path", c.Request.URL.Path))
		}
		if remaining := c.Writer.Header().Get("X-RateLimit-Remaining"); remaining != "" {
			attrs = append(attrs, slog.String("rate_remaining", remaining))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			attrs = append(attrs, slog.String("errors", errs))
		}

		slog.LogAttrs(c, requestLevel(route, statusCode), "HTTP request", attrs...)
	}
}

func requestLevel(route string, statusCode int) slog.Level {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return slog.LevelError
	case statusCode >= http.StatusBadRequest:
		return slog.LevelWarn
	case quietRoutes[route]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
