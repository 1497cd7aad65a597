package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/smallbiznis/autocharge/internal/clock"
	"github.com/smallbiznis/autocharge/internal/schedule"
	"go.uber.org/zap"
)

var ErrInvalidCronJob = errors.New("invalid_cron_job")

// Task is invoked once per fired boundary. boundary is the trigger point
// that was reached, which may lie well before the clock's current time when
// several boundaries were skipped by a jump.
type Task func(boundary time.Time)

// CronJob fires a task once each time the clock crosses the next boundary of
// its schedule. Boundaries skipped by a clock jump coalesce into one fire.
//
// The task runs synchronously on the goroutine that observed the boundary:
// the waiter's goroutine, or the caller of the clock's Advance.
type CronJob struct {
	name     string
	schedule schedule.Schedule
	clock    clock.Watchable
	task     Task
	log      *zap.Logger

	mu      sync.Mutex
	next    time.Time
	stopped bool

	waiterMu sync.Mutex
	waiter   *waiter
}

type waiter struct {
	timer  *time.Timer
	cancel chan struct{}
	once   sync.Once
}

func newWaiter(d time.Duration) *waiter {
	if d < 0 {
		d = 0
	}
	return &waiter{timer: time.NewTimer(d), cancel: make(chan struct{})}
}

func (w *waiter) stop() {
	w.once.Do(func() {
		w.timer.Stop()
		close(w.cancel)
	})
}

// NewCronJob registers the job with the clock and arms its first wait.
func NewCronJob(name string, s schedule.Schedule, c clock.Watchable, task Task, log *zap.Logger) (*CronJob, error) {
	if s == nil || c == nil || task == nil {
		return nil, ErrInvalidCronJob
	}
	if log == nil {
		log = zap.NewNop()
	}
	j := &CronJob{
		name:     name,
		schedule: s,
		clock:    c,
		task:     task,
		log:      log.With(zap.String("job", name)),
	}
	j.next = s.Next(c.Now())
	c.Watch(j)
	j.arm()
	return j, nil
}

// NextFireTime reports the boundary the job is waiting for. The zero time
// means the schedule has no further boundary.
func (j *CronJob) NextFireTime() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.next
}

// Stop suppresses every future fire. A fire already running completes.
func (j *CronJob) Stop() {
	j.mu.Lock()
	if j.stopped {
		j.mu.Unlock()
		return
	}
	j.stopped = true
	j.mu.Unlock()

	j.clock.Unwatch(j)

	j.waiterMu.Lock()
	if j.waiter != nil {
		j.waiter.stop()
		j.waiter = nil
	}
	j.waiterMu.Unlock()
}

// Stopped reports whether Stop has been called.
func (j *CronJob) Stopped() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stopped
}

// TimeChanged re-arms the wait for the new remaining duration and fires
// inline when the jump reached the pending boundary.
func (j *CronJob) TimeChanged() {
	j.arm()
	j.checkAndFire()
}

// arm replaces the current waiter with one sized to the pending boundary.
func (j *CronJob) arm() {
	j.waiterMu.Lock()
	defer j.waiterMu.Unlock()

	if j.waiter != nil {
		j.waiter.stop()
		j.waiter = nil
	}

	j.mu.Lock()
	next, stopped := j.next, j.stopped
	j.mu.Unlock()
	if stopped || next.IsZero() {
		return
	}

	w := newWaiter(next.Sub(j.clock.Now()))
	j.waiter = w
	go j.wait(w)
}

func (j *CronJob) wait(w *waiter) {
	select {
	case <-w.timer.C:
	case <-w.cancel:
		return
	}
	if j.checkAndFire() {
		return
	}

	// Woke without reaching the boundary; keep waiting unless replaced.
	j.waiterMu.Lock()
	current := j.waiter == w
	j.waiterMu.Unlock()
	if current {
		j.arm()
	}
}

// checkAndFire fires the task when the clock has reached the pending
// boundary. Concurrent callers converge on the lock; only the first one to
// observe the boundary fires.
func (j *CronJob) checkAndFire() bool {
	j.mu.Lock()
	if j.stopped || j.next.IsZero() {
		j.mu.Unlock()
		return false
	}
	now := j.clock.Now()
	if now.Before(j.next) {
		j.mu.Unlock()
		return false
	}

	boundary := j.next
	candidate := j.schedule.Next(now)
	if !candidate.IsZero() && !now.Before(candidate) {
		candidate = j.schedule.Next(now.Add(time.Second))
	}
	j.next = candidate
	j.mu.Unlock()

	j.arm()
	j.run(boundary)
	return true
}

func (j *CronJob) run(boundary time.Time) {
	defer func() {
		if r := recover(); r != nil {
			j.log.Error("scheduler.cronjob.panic",
				zap.Time("boundary", boundary),
				zap.Any("panic", r),
			)
		}
	}()
	j.task(boundary)
}

var _ clock.Watcher = (*CronJob)(nil)
