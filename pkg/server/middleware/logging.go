package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"janitorr-hq/overseer/pkg/telemetry/logging"
)

// Logging logs each completed request with structured fields. Server errors
// log at error level and client errors at warn.
//
// Log format (JSON):
//
//	{
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "GET",
//	  "path": "/api/schedule",
//	  "route": "GET /api/schedule",
//	  "status": 200,
//	  "latency_ms": 12,
//	  "request_id": "3f0c...",
//	  "user": "alice"
//	}
//
// The request ID and user are set by inner middleware; they are collected
// through logging.Annotations.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			ctx, ann := logging.WithAnnotations(r.Context())
			r, route := withRoute(r.WithContext(ctx))

			next.ServeHTTP(rw, r)

			level := slog.LevelInfo
			switch {
			case rw.statusCode >= 500:
				level = slog.LevelError
			case rw.statusCode >= 400:
				level = slog.LevelWarn
			}

			logger.Log(ann.Context(r.Context()), level, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route.get(),
				"status", rw.statusCode,
				"latency_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		})
	}
}
