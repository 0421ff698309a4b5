package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ykvlv/oazis/internal/domain"
	"github.com/ykvlv/oazis/internal/metrics"
)

// PreferenceSource yields users and their effective settings.
// hydration.Service implements this.
type PreferenceSource interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
	Settings(ctx context.Context, userID int64) (domain.Settings, error)
}

// Evaluator decides what, if anything, to send when a user's job fires.
// reminder.Evaluator implements this.
type Evaluator interface {
	Evaluate(ctx context.Context, userID int64)
}

const idleWait = time.Hour

// Scheduler keeps one aligned reminder job per user and fires them from a
// single timer loop.
type Scheduler struct {
	prefs PreferenceSource
	eval  Evaluator
	log   *zap.Logger
	now   func() time.Time
	sem   *semaphore.Weighted

	mu    sync.Mutex
	jobs  map[int64]*job
	queue queue
	wake  chan struct{}
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithMaxConcurrent bounds the number of evaluations running at once.
func WithMaxConcurrent(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// New creates a Scheduler. Call Run to start firing jobs.
func New(prefs PreferenceSource, eval Evaluator, log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		prefs: prefs,
		eval:  eval,
		log:   log,
		now:   time.Now,
		sem:   semaphore.NewWeighted(16),
		jobs:  make(map[int64]*job),
		wake:  make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ScheduleForUser (re)registers the user's job at the next aligned instant.
// Invalid preferences are logged and leave any existing job untouched.
// Only persistence errors are returned.
func (s *Scheduler) ScheduleForUser(ctx context.Context, userID int64) error {
	eff, err := s.prefs.Settings(ctx, userID)
	if err != nil {
		return fmt.Errorf("load settings for %d: %w", userID, err)
	}

	w := eff.Window()
	if err := w.Validate(); err != nil {
		metrics.ScheduleSkips.Inc()
		s.log.Warn("skip scheduling: invalid preferences",
			zap.Int64("user_id", userID),
			zap.Int("start_hour", eff.StartHour),
			zap.Int("end_hour", eff.EndHour),
			zap.Int("interval_min", eff.IntervalMinutes),
			zap.Error(err),
		)
		return nil
	}

	next := domain.NextAligned(w, s.now())

	s.mu.Lock()
	j, ok := s.jobs[userID]
	if ok {
		j.next = next
		j.window = w
		heap.Fix(&s.queue, j.index)
	} else {
		j = &job{userID: userID, next: next, window: w}
		heap.Push(&s.queue, j)
		s.jobs[userID] = j
	}
	metrics.ScheduledJobs.Set(float64(len(s.jobs)))
	s.mu.Unlock()

	s.notify()
	s.log.Info("reminder scheduled",
		zap.String("job_id", j.id()),
		zap.Time("next_run", next),
		zap.String("timezone", eff.Timezone),
		zap.Int("start_hour", eff.StartHour),
		zap.Int("end_hour", eff.EndHour),
		zap.Int("interval_min", eff.IntervalMinutes),
	)
	return nil
}

// ScheduleForAllUsers schedules every known user. A failure for one user is
// logged and does not stop the others.
func (s *Scheduler) ScheduleForAllUsers(ctx context.Context) error {
	ids, err := s.prefs.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, id := range ids {
		if err := s.ScheduleForUser(ctx, id); err != nil {
			s.log.Error("schedule user failed", zap.Int64("user_id", id), zap.Error(err))
		}
	}
	s.log.Info("reminders scheduled", zap.Int("users", len(ids)), zap.Int("jobs", s.Len()))
	return nil
}

// Cancel removes the user's job, if any.
func (s *Scheduler) Cancel(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[userID]
	if !ok {
		return
	}
	heap.Remove(&s.queue, j.index)
	delete(s.jobs, userID)
	metrics.ScheduledJobs.Set(float64(len(s.jobs)))
}

// NextRun returns when the user's job fires next.
func (s *Scheduler) NextRun(userID int64) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[userID]
	if !ok {
		return time.Time{}, false
	}
	return j.next, true
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Run fires due jobs until ctx is canceled. On shutdown the registry is
// cleared; in-flight evaluations see the canceled ctx and are not awaited.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(idleWait)
	defer timer.Stop()

	for {
		timer.Reset(s.untilNext())

		select {
		case <-ctx.Done():
			s.clear()
			s.log.Info("scheduler stopping")
			return
		case <-s.wake:
		case <-timer.C:
			s.fireDue(ctx, s.now())
		}
	}
}

func (s *Scheduler) untilNext() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return idleWait
	}
	d := s.queue[0].next.Sub(s.now())
	if d < 0 {
		return 0
	}
	return d
}

// fireDue advances every job due at now to its next aligned instant and
// dispatches an evaluation for each.
func (s *Scheduler) fireDue(ctx context.Context, now time.Time) {
	var due []int64

	s.mu.Lock()
	for len(s.queue) > 0 && !s.queue[0].next.After(now) {
		j := s.queue[0]
		// Ticks missed while the process was stalled collapse into this one.
		from := j.next
		if now.After(from) {
			from = now
		}
		j.next = domain.NextAligned(j.window, from.Add(time.Nanosecond))
		heap.Fix(&s.queue, 0)
		due = append(due, j.userID)
	}
	s.mu.Unlock()

	// Slots are awaited off the loop so a saturated pool never stalls timer
	// re-arming or wake handling.
	for _, id := range due {
		go func(userID int64) {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer s.sem.Release(1)
			s.eval.Evaluate(ctx, userID)
		}(id)
	}
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[int64]*job)
	s.queue = nil
	metrics.ScheduledJobs.Set(0)
}
