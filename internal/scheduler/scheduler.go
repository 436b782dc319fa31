package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/KMK-tech-v0/fuel/pkg/logging"
)

// Job is one periodic task. It receives a context bounded by the job timeout.
type Job func(ctx context.Context) error

// Scheduler runs background jobs on cron schedules
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  *logging.Logger
}

// New creates a scheduler. Overlapping runs of the same job are skipped.
func New(timeout time.Duration, logger *logging.Logger) *Scheduler {
	logger = logger.WithComponent("scheduler")
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{logger}),
			cron.SkipIfStillRunning(cronLogger{logger}),
		)),
		timeout: timeout,
		logger:  logger,
	}
}

// Add registers job under a standard cron spec or descriptor such as "@every 15m"
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.logger.Info("Scheduled job", "job", name, "schedule", spec)
	return nil
}

// Start starts the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("Stopping scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.WithError(err).Error("Scheduled job failed", "job", name, "durationMs", time.Since(start).Milliseconds())
		return
	}
	s.logger.Debug("Scheduled job finished", "job", name, "durationMs", time.Since(start).Milliseconds())
}

// cronLogger adapts logging.Logger to cron.Logger
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithError(err).Error(msg, keysAndValues...)
}
