// Package refresh keeps the schedule metrics current.
//
// Source reconstructs the deletion schedule from Janitorr's configuration and
// activity log, recording reconstruction metrics and a span for each pass.
// The HTTP handlers call it on demand. Scheduler runs the same pass from a
// cron schedule (telemetry.metrics.refresh_schedule, default every five
// minutes) so the gauges stay fresh between page views, and also publishes
// the dependency checks as dependency_up gauges.
//
// Nothing is cached: every pass re-reads both files.
package refresh
