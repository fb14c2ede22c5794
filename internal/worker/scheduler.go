package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"arbdash/internal/log"
)

// Scheduler runs jobs on standard five-field cron schedules. A job still
// running when its next tick arrives skips that tick.
type Scheduler struct {
	cron    *cron.Cron
	logger  *log.Logger
	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewScheduler(location *time.Location, logger *log.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger:  logger.WithComponent(log.ComponentScheduler),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Add registers job under schedule. Job errors are logged.
func (s *Scheduler) Add(name, schedule string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(schedule, func() {
		started := time.Now()
		if err := job(s.baseCtx); err != nil {
			s.logger.Error("Scheduled job failed", "job", name, log.FieldError, err)
			return
		}
		s.logger.Debug("Scheduled job finished", "job", name, log.FieldDuration, time.Since(started).Milliseconds())
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, schedule, err)
	}
	s.logger.Info("Job scheduled", "job", name, "schedule", schedule)
	return nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}
