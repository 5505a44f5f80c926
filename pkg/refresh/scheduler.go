package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"janitorr-hq/overseer/pkg/telemetry/health"
	"janitorr-hq/overseer/pkg/telemetry/metrics"

	"github.com/robfig/cron/v3"
)

// Job is extra periodic work run by the Scheduler.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context)
}

// Scheduler refreshes the schedule and dependency gauges on a cron schedule.
type Scheduler struct {
	source   *Source
	checker  *health.Checker
	metrics  *metrics.Collector
	schedule string
	jobs     []Job

	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
	entry   cron.EntryID
	last    time.Time
}

// NewScheduler creates a scheduler running source on spec. Checker and
// collector may be nil, in which case dependency gauges are not published.
func NewScheduler(source *Source, spec string, checker *health.Checker, collector *metrics.Collector, jobs ...Job) *Scheduler {
	return &Scheduler{
		source:   source,
		checker:  checker,
		metrics:  collector,
		schedule: spec,
		jobs:     jobs,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "refresh.scheduler"),
	}
}

// Start registers the refresh and any extra jobs and starts the cron loop.
// One refresh runs immediately so the gauges are populated at startup.
//
// Common schedules:
//   - "*/5 * * * *" - every five minutes
//   - "@every 30s"  - every thirty seconds
//
// If the schedule is empty, the scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.schedule == "" {
		s.logger.Info("refresh schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}
	id, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	s.entry = id

	for _, job := range s.jobs {
		job := job
		if _, err := s.cron.AddFunc(job.Schedule, func() { job.Run(ctx) }); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("refresh scheduler started",
		"schedule", s.schedule,
		"jobs", len(s.jobs),
	)

	go s.RunOnce(ctx)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce performs one refresh pass.
func (s *Scheduler) RunOnce(ctx context.Context) {
	snap, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Warn("scheduled refresh failed", "error", err)
	} else {
		s.logger.Debug("scheduled refresh completed",
			"records", snap.Summary.Total,
			"overdue", snap.Summary.Overdue,
		)
	}

	if s.checker != nil {
		status := s.checker.CheckReadiness(ctx)
		for name, result := range status.Checks {
			s.metrics.UpdateDependency(name, result.OK())
		}
	}

	s.mu.Lock()
	s.last = time.Now()
	s.mu.Unlock()
}

// Stop stops the scheduler and waits for any running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopped := s.cron.Stop()
	s.mu.Unlock()

	// Running jobs may take the lock in RunOnce.
	<-stopped.Done()
	s.logger.Info("refresh scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastRun returns when the last refresh finished, zero if none has.
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// NextRun returns the next scheduled refresh time, nil when not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		return nil
	}
	return &next
}
