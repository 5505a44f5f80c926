package middleware

import (
	"net/http"
	"time"

	"janitorr-hq/overseer/pkg/telemetry/metrics"
)

// Metrics records request count and latency labelled by the matched route
// pattern. The mux must be wrapped in CaptureRoute.
func Metrics(c *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !c.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r, route := withRoute(r)
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			c.RecordHTTPRequest(r.Method, route.get(), rw.statusCode, time.Since(start))
		})
	}
}
