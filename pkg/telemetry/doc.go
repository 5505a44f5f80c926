// Package telemetry groups Overseer's observability packages.
//
//   - logging: log/slog setup with context fields and credential redaction
//   - metrics: Prometheus metrics for requests, schedule reconstruction and
//     dependencies
//   - tracing: OpenTelemetry tracing exported over OTLP
//   - health: dependency checks and the /health, /ready and /version probes
package telemetry
