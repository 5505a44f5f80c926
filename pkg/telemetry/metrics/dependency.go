package metrics

import (
	"time"

	"janitorr-hq/overseer/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DependencyMetrics tracks the services the dashboard depends on.
//
// Metrics:
//   - <ns>_<sub>_dependency_up: 1 when the named dependency check passes
//   - <ns>_<sub>_jellyfin_lookups_total: media lookups by result
//   - <ns>_<sub>_jellyfin_lookup_duration_seconds: lookup latency
type DependencyMetrics struct {
	up             *prometheus.GaugeVec
	lookups        *prometheus.CounterVec
	lookupDuration prometheus.Histogram
}

// NewDependencyMetrics creates and registers dependency metrics with the
// provided registry.
func NewDependencyMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *DependencyMetrics {
	dm := &DependencyMetrics{
		up: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dependency_up",
				Help:      "Dependency availability (1=up, 0=down)",
			},
			[]string{"dependency"},
		),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "jellyfin_lookups_total",
				Help:      "Total number of Jellyfin media lookups",
			},
			[]string{"result"},
		),
		lookupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "jellyfin_lookup_duration_seconds",
				Help:      "Jellyfin media lookup latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
	}

	registry.MustRegister(dm.up, dm.lookups, dm.lookupDuration)
	return dm
}

// UpdateUp sets the availability gauge for a dependency.
func (dm *DependencyMetrics) UpdateUp(name string, up bool) {
	value := 0.0
	if up {
		value = 1.0
	}
	dm.up.WithLabelValues(name).Set(value)
}

// RecordLookup records one Jellyfin lookup.
func (dm *DependencyMetrics) RecordLookup(result string, duration time.Duration) {
	dm.lookups.WithLabelValues(result).Inc()
	dm.lookupDuration.Observe(duration.Seconds())
}
