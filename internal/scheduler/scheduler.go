package scheduler

import (
	"context"
	"fmt"

	applogger "StockCast/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled task.
type Job interface {
	Run(ctx context.Context) int
}

// Scheduler runs jobs on standard five-field cron specs.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	l      *applogger.Logger
}

func New(l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:    ctx,
		cancel: cancel,
		l:      l,
	}
}

// Register schedules job under spec. name is used in logs only.
func (s *Scheduler) Register(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() {
		s.l.Debug("scheduled job start", applogger.String("job", name))
		job.Run(s.ctx)
	}); err != nil {
		return fmt.Errorf("register %s (%q): %w", name, spec, err)
	}
	return nil
}

// Len returns the number of registered entries.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start starts the cron loop in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started", applogger.Int("jobs", s.Len()))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.l.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
