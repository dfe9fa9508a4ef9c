package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron expressions with a seconds field.
// A job still running when its next tick fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Add registers job under name on spec.
func (s *Scheduler) Add(name, spec string, job Job) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		s.logger.Info("Scheduled job started", zap.String("job", name))
		if err := job(s.ctx); err != nil {
			s.logger.Error("Scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("Scheduled job finished", zap.String("job", name), zap.Duration("took", time.Since(started)))
	})
	if err != nil {
		return 0, fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	s.logger.Info("Job scheduled", zap.String("job", name), zap.String("cron", spec), zap.Time("next", s.cron.Entry(id).Schedule.Next(time.Now())))
	return id, nil
}

// Next returns the next activation of the entry.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Schedule.Next(time.Now())
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops firing jobs, cancels the context handed to running jobs and
// waits for them to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
