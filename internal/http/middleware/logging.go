// Package middleware contains the gin middleware used by `cdt serve`.
//
// RequestID, Logger and Recovery are meant to be installed in that order so
// that every access log line and every recovered panic carries the
// correlation ID.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tbourn/compound-data-tool/internal/sysutil"
)

const (
	requestIDKey        = "requestID"
	loggerKey           = "logger"
	requestIDHeader     = "X-Request-ID"
	correlationIDHeader = "X-Correlation-ID"
	maxQueryLogLength   = 256
)

// RequestID reuses the caller's X-Request-ID (or X-Correlation-ID) or
// generates a UUIDv4, then echoes it on the response and stores it in the
// gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := sysutil.FirstNonEmpty(c.GetHeader(requestIDHeader), c.GetHeader(correlationIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger writes one access log line per request through base and attaches a
// request-scoped child logger for handlers (see LoggerFrom).
//
// Level follows the outcome: error for 5xx or when gin collected errors,
// warn for 4xx, debug otherwise. Successful requests stay below the default
// console level and only reach the log file.
func Logger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		l := base.With().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		status := c.Writer.Status()
		ev := l.With().
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Logger()

		switch {
		case len(c.Errors) > 0:
			ev.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= http.StatusInternalServerError:
			ev.Error().Msg("request")
		case status >= http.StatusBadRequest:
			ev.Warn().Msg("request")
		default:
			ev.Debug().Msg("request")
		}
	}
}

// Recovery turns a panic into a JSON 500 in the standard error envelope and
// logs the stack through base.
func Recovery(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := c.GetString(requestIDKey)
			base.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger installed by Logger, or a
// disabled logger when Logger is not in the chain.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	nop := zerolog.Nop()
	return &nop
}

// RequestIDFrom returns the correlation ID set by RequestID.
func RequestIDFrom(c *gin.Context) string {
	return sysutil.FirstNonEmpty(c.GetString(requestIDKey), c.Writer.Header().Get(requestIDHeader))
}

// truncate caps s at max bytes for logging.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
