package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/econpulse/internal/logger"
)

// healthPaths are polled by the orchestrator every few seconds; their
// successful hits are logged at debug only.
var healthPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLogger writes one "http_request" line per API call once the
// handler chain has finished.
//
// Besides method, status and latency the line carries the matched route
// template ("/api/v1/indicators/:code/history") so dashboards can group by
// endpoint, and the indicator code when the route has one. The level follows
// the outcome: error for 5xx (database down, timeouts), warn for 4xx
// (unknown code, bad days) and info otherwise. Successful health and
// readiness polls drop to debug.
//
//	{"level":"warn","service":"econpulse","request_id":"6f1c...","method":"GET",
//	 "route":"/api/v1/indicators/:code","code":"nope","status":404,"latency_ms":2,...}
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		log := logger.L()
		ev := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		default:
			if _, health := healthPaths[path]; health {
				ev = log.Debug()
			}
		}

		if code := c.Param("code"); code != "" {
			ev = ev.Str("code", code)
		}
		ev.Str("request_id", requestIDOf(c)).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

// requestIDOf returns the id RequestID stored, or "" when it did not run.
func requestIDOf(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
