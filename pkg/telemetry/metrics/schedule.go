package metrics

import (
	"time"

	"janitorr-hq/overseer/pkg/config"
	"janitorr-hq/overseer/pkg/schedule"

	"github.com/prometheus/client_golang/prometheus"
)

// ScheduleMetrics tracks deletion schedule reconstruction.
//
// Metrics:
//   - <ns>_<sub>_reconstructions_total: reconstructions by result
//   - <ns>_<sub>_reconstruction_duration_seconds: time to scan the log
//   - <ns>_<sub>_scheduled_deletions: records in the latest scan
//   - <ns>_<sub>_overdue_deletions: records past their deletion date
//   - <ns>_<sub>_unscheduled_deletions: records with unknown retention
//   - <ns>_<sub>_next_deletion_timestamp_seconds: earliest upcoming deletion
//     (0 when none)
//   - <ns>_<sub>_last_scan_timestamp_seconds: date of the latest scan
//     (0 when none)
type ScheduleMetrics struct {
	reconstructions *prometheus.CounterVec
	duration        prometheus.Histogram

	scheduled    prometheus.Gauge
	overdue      prometheus.Gauge
	unscheduled  prometheus.Gauge
	nextDeletion prometheus.Gauge
	lastScan     prometheus.Gauge
}

// NewScheduleMetrics creates and registers schedule metrics with the provided
// registry.
func NewScheduleMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *ScheduleMetrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		})
	}

	sm := &ScheduleMetrics{
		reconstructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reconstructions_total",
				Help:      "Total number of deletion schedule reconstructions",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reconstruction_duration_seconds",
				Help:      "Time spent reading and scanning the Janitorr log",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
			},
		),
		scheduled:    gauge("scheduled_deletions", "Media items in the latest deletion scan"),
		overdue:      gauge("overdue_deletions", "Media items whose deletion date has passed"),
		unscheduled:  gauge("unscheduled_deletions", "Media items with an unknown retention window"),
		nextDeletion: gauge("next_deletion_timestamp_seconds", "Unix time of the earliest upcoming deletion"),
		lastScan:     gauge("last_scan_timestamp_seconds", "Unix time of the latest deletion scan date"),
	}

	registry.MustRegister(
		sm.reconstructions,
		sm.duration,
		sm.scheduled,
		sm.overdue,
		sm.unscheduled,
		sm.nextDeletion,
		sm.lastScan,
	)
	return sm
}

// RecordReconstruction records one reconstruction.
func (sm *ScheduleMetrics) RecordReconstruction(result string, duration time.Duration) {
	sm.reconstructions.WithLabelValues(result).Inc()
	sm.duration.Observe(duration.Seconds())
}

// Update publishes a schedule summary.
func (sm *ScheduleMetrics) Update(summary schedule.Summary) {
	sm.scheduled.Set(float64(summary.Total))
	sm.overdue.Set(float64(summary.Overdue))
	sm.unscheduled.Set(float64(summary.Unscheduled))
	sm.nextDeletion.Set(dateSeconds(summary.NextDeletion))
	sm.lastScan.Set(dateSeconds(summary.ScanDate))
}

func dateSeconds(d *schedule.Date) float64 {
	if d == nil {
		return 0
	}
	return float64(d.Time().Unix())
}
