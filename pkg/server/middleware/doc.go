// Package middleware provides the HTTP middleware chain of the dashboard
// server.
//
// Requests pass through, outermost first:
//  1. Recovery: turns panics into a JSON 500 response
//  2. Logging: one structured record per request
//  3. RequestID: X-Request-ID propagation and generation
//  4. Metrics: request count and latency by route pattern
//  5. Tracing: a server span per request (tracing.HTTPMiddleware)
//  6. Timeout: a deadline on the request context
//
// Authentication is applied per route by the server.
package middleware
