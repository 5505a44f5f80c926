// Package tracing wires OpenTelemetry tracing for Overseer.
//
// When telemetry.tracing.enabled is set, spans are exported over OTLP/gRPC
// to telemetry.tracing.endpoint and the SDK provider is installed as the
// global provider, so packages that call otel.Tracer (the Jellyfin client,
// for one) export through it. When disabled, a noop tracer is used.
//
// HTTPMiddleware starts a server span for every request, continuing any W3C
// trace context the caller sent, and names it after the matched route.
//
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "schedule.reconstruct")
//	defer span.End()
package tracing
