package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smallbiznis/autocharge/internal/clock"
	obsmetrics "github.com/smallbiznis/autocharge/internal/observability/metrics"
	"github.com/smallbiznis/autocharge/internal/schedule"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const billingJob = "billing_pass"

var (
	ErrInvalidConfig  = errors.New("invalid_scheduler_config")
	ErrNotStarted     = errors.New("scheduler_not_started")
	ErrAlreadyStarted = errors.New("scheduler_already_started")
)

// Runner is the work a fired boundary triggers.
type Runner interface {
	Run(ctx context.Context) error
}

type Params struct {
	fx.In

	Log    *zap.Logger
	Clock  clock.Watchable
	Runner Runner
	Config Config `optional:"true"`
}

// Scheduler owns the cron job that drives billing passes. Restart swaps the
// job for a replacement built from a new schedule.
type Scheduler struct {
	log    *zap.Logger
	cfg    Config
	clock  clock.Watchable
	runner Runner

	mu  sync.Mutex
	job *CronJob
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.Runner == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:    p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:    p.Config.withDefaults(),
		clock:  p.Clock,
		runner: p.Runner,
	}, nil
}

// Start builds the cron job from the configured schedule.
func (s *Scheduler) Start() error {
	sched, err := s.parseSchedule(s.cfg.Schedule)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != nil {
		return ErrAlreadyStarted
	}
	return s.startLocked(sched)
}

// Restart stops the running job and starts a replacement for expression.
func (s *Scheduler) Restart(expression string) error {
	sched, err := s.parseSchedule(expression)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != nil {
		s.job.Stop()
		s.job = nil
	}
	s.cfg.Schedule = expression
	return s.startLocked(sched)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return
	}
	s.job.Stop()
	s.job = nil
	s.log.Info("scheduler.stopped", zap.String("job", billingJob))
}

// NextFireTime reports the pending boundary of the running job.
func (s *Scheduler) NextFireTime() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return time.Time{}, ErrNotStarted
	}
	return s.job.NextFireTime(), nil
}

func (s *Scheduler) startLocked(sched schedule.Schedule) error {
	job, err := NewCronJob(billingJob, sched, s.clock, s.fire, s.log)
	if err != nil {
		return err
	}
	s.job = job
	s.log.Info("scheduler.started",
		zap.String("job", billingJob),
		zap.String("schedule", s.cfg.Schedule),
		zap.Time("next_fire_time", job.NextFireTime()),
	)
	return nil
}

func (s *Scheduler) parseSchedule(expression string) (schedule.Schedule, error) {
	loc, err := s.cfg.location()
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, s.cfg.Timezone, err)
	}
	sched, err := schedule.Parse(expression, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return sched, nil
}

// fire runs one billing pass for the reached boundary. The pass is never
// cancelled by Stop; PassTimeout bounds it when set.
func (s *Scheduler) fire(boundary time.Time) {
	start := time.Now()
	ctx := context.Background()
	if s.cfg.PassTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PassTimeout)
		defer cancel()
	}

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(billingJob)
	schedMetrics.ObserveFireLag(s.clock.Now().Sub(boundary))

	s.log.Debug("scheduler.job.fire",
		zap.String("job", billingJob),
		zap.Time("boundary", boundary),
	)

	err := s.runner.Run(ctx)
	schedMetrics.ObserveJobDuration(billingJob, time.Since(start))
	if err == nil {
		return
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded)
	if isTimeout {
		schedMetrics.IncJobTimeout(billingJob)
	}
	schedMetrics.IncJobError(billingJob, err)
	if isTimeout {
		s.log.Warn("scheduler.job.timeout",
			zap.String("job", billingJob),
			zap.Duration("timeout", s.cfg.PassTimeout),
			zap.Error(err),
		)
		return
	}
	s.log.Error("scheduler.job.failed",
		zap.String("job", billingJob),
		zap.Error(err),
	)
}
