// Package metrics provides Prometheus metrics for Overseer.
//
// # Metrics Categories
//
//   - HTTP Metrics: request count and latency per route
//   - Schedule Metrics: reconstruction count and duration, plus gauges for
//     the latest scan (scheduled, overdue, unscheduled, next deletion)
//   - Dependency Metrics: Jellyfin lookup results and latency, and an up
//     gauge per checked dependency (config, logs, jellyfin, service)
//
// # Usage
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
//	start := time.Now()
//	sched, err := reader.Scheduled(days)
//	collector.RecordReconstruction(metrics.ResultFor(err), time.Since(start))
//	collector.UpdateSchedule(schedule.Summarize(sched, schedule.Today()))
//
// All metrics are prefixed with the configured namespace and subsystem,
// janitorr_overseer_ by default:
//
//	# HELP janitorr_overseer_scheduled_deletions Media items in the latest deletion scan
//	# TYPE janitorr_overseer_scheduled_deletions gauge
//	janitorr_overseer_scheduled_deletions 12
//
// Route labels are capped by a CardinalityLimiter; routes past the limit are
// reported as "other".
package metrics
