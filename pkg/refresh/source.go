package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"janitorr-hq/overseer/pkg/policystore"
	"janitorr-hq/overseer/pkg/retention"
	"janitorr-hq/overseer/pkg/schedule"
	"janitorr-hq/overseer/pkg/telemetry/metrics"
	"janitorr-hq/overseer/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Snapshot is the result of one reconstruction.
type Snapshot struct {
	Schedule  schedule.Schedule
	Retention retention.Days
	Summary   schedule.Summary

	// Policy is the configuration document, nil when it could not be read.
	Policy policystore.Document

	// PolicyErr is why the configuration could not be read. The schedule
	// is still reconstructed, with an unknown retention window.
	PolicyErr error
}

// Source reconstructs the schedule from the configuration and the log.
type Source struct {
	mu      sync.RWMutex
	policy  *policystore.Store
	log     *schedule.Reader
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	today   func() schedule.Date
	logger  *slog.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithMetrics records reconstructions on c.
func WithMetrics(c *metrics.Collector) SourceOption {
	return func(s *Source) { s.metrics = c }
}

// WithTracer wraps each reconstruction in a span.
func WithTracer(t *tracing.Tracer) SourceOption {
	return func(s *Source) { s.tracer = t }
}

// WithToday overrides the date used to summarize the schedule.
func WithToday(fn func() schedule.Date) SourceOption {
	return func(s *Source) { s.today = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SourceOption {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSource creates a Source.
func NewSource(policy *policystore.Store, log *schedule.Reader, opts ...SourceOption) *Source {
	s := &Source{
		policy: policy,
		log:    log,
		today:  schedule.Today,
		logger: slog.Default().With("component", "refresh.source"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the configuration store.
func (s *Source) Policy() *policystore.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Log returns the log reader.
func (s *Source) Log() *schedule.Reader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log
}

// Retarget points the source at new files, after a configuration reload.
func (s *Source) Retarget(policy *policystore.Store, log *schedule.Reader) {
	s.mu.Lock()
	s.policy = policy
	s.log = log
	s.mu.Unlock()
}

// Load reads the configuration for the retention window and reconstructs
// the schedule. A log error is returned alongside an empty schedule; a
// configuration error only leaves the retention unknown.
func (s *Source) Load(ctx context.Context) (Snapshot, error) {
	ctx, span := s.startSpan(ctx, "schedule.reconstruct")
	defer span.End()

	policy, log := s.Policy(), s.Log()

	var snap Snapshot
	doc, err := policy.Read()
	if err != nil {
		snap.PolicyErr = err
		if !errors.Is(err, policystore.ErrNotFound) {
			s.logger.WarnContext(ctx, "janitorr configuration unreadable, retention unknown",
				"path", policy.Path(),
				"error", err,
			)
		}
	} else {
		snap.Policy = doc
		snap.Retention = doc.Retention()
	}

	start := time.Now()
	sched, err := log.Scheduled(snap.Retention)
	elapsed := time.Since(start)
	s.metrics.RecordReconstruction(metrics.ResultFor(err), elapsed)

	snap.Schedule = sched
	snap.Summary = schedule.Summarize(sched, s.today())

	attrs := []attribute.KeyValue{tracing.AttrScheduleRecords.Int(sched.Len())}
	if days, ok := snap.Retention.Get(); ok {
		attrs = append(attrs, tracing.AttrRetentionDays.Int(days))
	}
	if snap.Summary.ScanDate != nil {
		attrs = append(attrs, tracing.AttrScheduleScan.String(snap.Summary.ScanDate.String()))
	}
	span.SetAttributes(attrs...)
	tracing.SetStatus(span, err)

	if err != nil {
		return snap, err
	}
	s.metrics.UpdateSchedule(snap.Summary)
	return snap, nil
}

// Tail returns the last n log lines.
func (s *Source) Tail(ctx context.Context, n int) ([]string, error) {
	_, span := s.startSpan(ctx, "schedule.tail")
	defer span.End()

	lines, err := s.Log().Tail(n)
	tracing.SetStatus(span, err)
	return lines, err
}

func (s *Source) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, noop.Span{}
	}
	return s.tracer.Start(ctx, name)
}
