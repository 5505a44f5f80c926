package metrics

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"janitorr-hq/overseer/pkg/config"
	"janitorr-hq/overseer/pkg/schedule"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for reconstructions and lookups.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// OtherRoute replaces route labels once the cardinality limit is reached.
const OtherRoute = "other"

const maxRoutes = 200

// Collector owns the Prometheus registry and every metric Overseer exports.
// A disabled collector accepts all calls and records nothing.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	httpMetrics       *HTTPMetrics
	scheduleMetrics   *ScheduleMetrics
	dependencyMetrics *DependencyMetrics

	routeLimiter *CardinalityLimiter
}

// NewCollector creates a collector with the given configuration. If registry
// is nil a new private registry is used.
//
// Example:
//
//	collector := metrics.NewCollector(config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "janitorr",
//		Subsystem: "overseer",
//	}, nil)
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	return &Collector{
		config:            cfg,
		registry:          registry,
		httpMetrics:       NewHTTPMetrics(cfg, registry),
		scheduleMetrics:   NewScheduleMetrics(cfg, registry),
		dependencyMetrics: NewDependencyMetrics(cfg, registry),
		routeLimiter:      NewCardinalityLimiter(maxRoutes),
	}
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordHTTPRequest records a served request. Route should be the matched
// pattern, not the raw path.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.Enabled() {
		return
	}
	if route == "" || !c.routeLimiter.Allow(route) {
		route = OtherRoute
	}
	c.httpMetrics.Record(method, route, strconv.Itoa(status), duration)
}

// RecordReconstruction records one schedule reconstruction.
//
// Parameters:
//   - result: ResultOK, ResultNotFound or ResultError
//   - duration: time spent reading and scanning the log
func (c *Collector) RecordReconstruction(result string, duration time.Duration) {
	if !c.Enabled() {
		return
	}
	c.scheduleMetrics.RecordReconstruction(result, duration)
}

// UpdateSchedule publishes the summary of the latest reconstruction.
func (c *Collector) UpdateSchedule(summary schedule.Summary) {
	if !c.Enabled() {
		return
	}
	c.scheduleMetrics.Update(summary)
}

// RecordJellyfinLookup records one media lookup against Jellyfin.
func (c *Collector) RecordJellyfinLookup(result string, duration time.Duration) {
	if !c.Enabled() {
		return
	}
	c.dependencyMetrics.RecordLookup(result, duration)
}

// UpdateDependency sets the availability gauge of a named dependency.
func (c *Collector) UpdateDependency(name string, up bool) {
	if !c.Enabled() {
		return
	}
	c.dependencyMetrics.UpdateUp(name, up)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ResultFor maps an error to a result label. A missing log, or any of the
// extra notFound errors, counts as not found.
func ResultFor(err error, notFound ...error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, schedule.ErrNotFound):
		return ResultNotFound
	}
	for _, target := range notFound {
		if errors.Is(err, target) {
			return ResultNotFound
		}
	}
	return ResultError
}

// CardinalityLimiter caps the number of distinct values a label may take.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting up to maxCardinality
// distinct values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already tracked or still fits under the
// limit, tracking it in the latter case.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of tracked values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
