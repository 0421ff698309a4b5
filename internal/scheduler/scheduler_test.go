package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ykvlv/oazis/internal/domain"
)

var paris = mustLoad("Europe/Paris")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type fakePrefs struct {
	mu       sync.Mutex
	settings map[int64]domain.Settings
	errs     map[int64]error
	listErr  error
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{settings: map[int64]domain.Settings{}, errs: map[int64]error{}}
}

func (f *fakePrefs) set(id int64, s domain.Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[id] = s
}

func (f *fakePrefs) ListUserIDs(context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var ids []int64
	for id := range f.settings {
		ids = append(ids, id)
	}
	for id := range f.errs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakePrefs) Settings(_ context.Context, id int64) (domain.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[id]; err != nil {
		return domain.Settings{}, err
	}
	s, ok := f.settings[id]
	if !ok {
		return domain.Settings{}, errors.New("not found")
	}
	return s, nil
}

type chanEvaluator chan int64

func (c chanEvaluator) Evaluate(_ context.Context, userID int64) { c <- userID }

func settings(start, end, interval int) domain.Settings {
	return domain.Settings{
		Timezone:        "Europe/Paris",
		Location:        paris,
		StartHour:       start,
		EndHour:         end,
		IntervalMinutes: interval,
		GoalML:          2000,
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.June, day, hour, minute, 0, 0, paris)
}

func newTestScheduler(prefs PreferenceSource, eval Evaluator, c *clock) *Scheduler {
	return New(prefs, eval, zap.NewNop(), WithClock(c.Now), WithMaxConcurrent(4))
}

func TestScheduleForUser_AlignsToGrid(t *testing.T) {
	prefs := newFakePrefs()
	prefs.set(1, settings(9, 21, 90))
	c := &clock{now: at(2, 10, 10)}
	s := newTestScheduler(prefs, make(chanEvaluator, 1), c)

	require.NoError(t, s.ScheduleForUser(context.Background(), 1))

	next, ok := s.NextRun(1)
	require.True(t, ok)
	assert.True(t, next.Equal(at(2, 10, 30)), "got %s", next)
}

func TestScheduleForUser_ReplacesExistingJob(t *testing.T) {
	prefs := newFakePrefs()
	prefs.set(1, settings(9, 21, 90))
	c := &clock{now: at(2, 10, 10)}
	s := newTestScheduler(prefs, make(chanEvaluator, 1), c)
	ctx := context.Background()

	require.NoError(t, s.ScheduleForUser(ctx, 1))
	require.NoError(t, s.ScheduleForUser(ctx, 1))
	assert.Equal(t, 1, s.Len())

	prefs.set(1, settings(9, 21, 60))
	require.NoError(t, s.ScheduleForUser(ctx, 1))
	assert.Equal(t, 1, s.Len())
	assert.Len(t, s.queue, 1)

	next, _ := s.NextRun(1)
	assert.True(t, next.Equal(at(2, 11, 0)), "got %s", next)
}

func TestScheduleForUser_InvalidPreferencesKeepExistingJob(t *testing.T) {
	prefs := newFakePrefs()
	prefs.set(1, settings(9, 21, 90))
	c := &clock{now: at(2, 10, 10)}
	s := newTestScheduler(prefs, make(chanEvaluator, 1), c)
	ctx := context.Background()

	require.NoError(t, s.ScheduleForUser(ctx, 1))

	prefs.set(1, settings(22, 8, 90))
	require.NoError(t, s.ScheduleForUser(ctx, 1))
	next, ok := s.NextRun(1)
	require.True(t, ok)
	assert.True(t, next.Equal(at(2, 10, 30)))

	prefs.set(2, settings(9, 21, 0))
	require.NoError(t, s.ScheduleForUser(ctx, 2))
	_, ok = s.NextRun(2)
	assert.False(t, ok)
}

func TestScheduleForUser_PropagatesPersistenceError(t *testing.T) {
	prefs := newFakePrefs()
	prefs.errs[1] = errors.New("database is locked")
	s := newTestScheduler(prefs, make(chanEvaluator, 1), &clock{now: at(2, 10, 0)})

	err := s.ScheduleForUser(context.Background(), 1)
	assert.ErrorContains(t, err, "database is locked")
	assert.Zero(t, s.Len())
}

func TestScheduleForAllUsers_ContinuesPastFailures(t *testing.T) {
	prefs := newFakePrefs()
	prefs.set(1, settings(9, 21, 90))
	prefs.errs[2] = errors.New("boom")
	prefs.set(3, settings(8, 20, 60))
	s := newTestScheduler(prefs, make(chanEvaluator, 1), &clock{now: at(2, 10, 10)})

	require.NoError(t, s.ScheduleForAllUsers(context.Background()))
	assert.Equal(t, 2, s.Len())
	_, ok := s.NextRun(3)
	assert.True(t, ok)
}

func TestScheduleForAllUsers_ListError(t *testing.T) {
	prefs := newFakePrefs()
	prefs.listErr = errors.New("no such table: users")
	s := newTestScheduler(prefs, make(chanEvaluator, 1), &clock{now: at(2, 10, 0)})

	assert.ErrorContains(t, s.ScheduleForAllUsers(context.Background()), "list users")
}

func TestCancel(t *testing.T) {
	prefs := newFakePrefs()
	prefs.set(1, settings(9, 21, 90))
	prefs.set(2, settings(9, 21, 90))
	s := newTestScheduler(prefs, make(chanEvaluator, 1), &clock{now: at(2, 10, 0)})
	ctx := context.Background()
	require.NoError(t, s.ScheduleForUser(ctx, 1))
	require.NoError(t, s.ScheduleForUser(ctx, 2))

	s.Cancel(1)
	s.Cancel(42)
	assert.Equal(t, 1, s.Len())
	_, ok := s.NextRun(1)
	assert.False(t, ok)
}

func TestFireDue_DispatchesAndAdvances(t *testing.T) {
	prefs := newFakePrefs()
	prefs.set(1, settings(9, 21, 90))
	prefs.set(2, settings(9, 21, 90))
	c := &clock{now: at(2, 10, 10)}
	eval := make(chanEvaluator, 2)
	s := newTestScheduler(prefs, eval, c)
	ctx := context.Background()
	require.NoError(t, s.ScheduleForUser(ctx, 1))
	c.Set(at(2, 10, 20))
	require.NoError(t, s.ScheduleForUser(ctx, 2))

	// Nothing due yet.
	s.fireDue(ctx, at(2, 10, 29))
	select {
	case id := <-eval:
		t.Fatalf("unexpected evaluation for %d", id)
	default:
	}

	s.fireDue(ctx, at(2, 10, 30))
	got := []int64{<-eval, <-eval}
	assert.ElementsMatch(t, []int64{1, 2}, got)

	next, _ := s.NextRun(1)
	assert.True(t, next.Equal(at(2, 12, 0)), "got %s", next)
}

type gateEvaluator struct {
	started chan int64
	release chan struct{}
}

func (g gateEvaluator) Evaluate(_ context.Context, userID int64) {
	g.started <- userID
	<-g.release
}

func TestFireDue_SaturatedPoolDoesNotBlockLoop(t *testing.T) {
	prefs := newFakePrefs()
	prefs.set(1, settings(9, 21, 90))
	prefs.set(2, settings(9, 21, 90))
	prefs.set(3, settings(9, 21, 90))
	c := &clock{now: at(2, 10, 10)}
	eval := gateEvaluator{started: make(chan int64, 3), release: make(chan struct{})}
	s := New(prefs, eval, zap.NewNop(), WithClock(c.Now), WithMaxConcurrent(1))
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.ScheduleForUser(ctx, id))
	}

	done := make(chan struct{})
	go func() {
		s.fireDue(ctx, at(2, 10, 30))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fireDue blocked on a busy evaluation slot")
	}

	first := <-eval.started
	select {
	case id := <-eval.started:
		t.Fatalf("evaluation for %d ran past the concurrency limit", id)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 3, s.Len())

	close(eval.release)
	got := []int64{first, <-eval.started, <-eval.started}
	assert.ElementsMatch(t, []int64{1, 2, 3}, got)
}

func TestFireDue_LastTickRollsToNextDay(t *testing.T) {
	prefs := newFakePrefs()
	prefs.set(1, settings(9, 21, 90))
	c := &clock{now: at(2, 19, 0)}
	eval := make(chanEvaluator, 1)
	s := newTestScheduler(prefs, eval, c)
	ctx := context.Background()
	require.NoError(t, s.ScheduleForUser(ctx, 1))

	next, _ := s.NextRun(1)
	require.True(t, next.Equal(at(2, 19, 30)))

	s.fireDue(ctx, next)
	assert.Equal(t, int64(1), <-eval)

	next, _ = s.NextRun(1)
	assert.True(t, next.Equal(at(3, 9, 0)), "got %s", next)
}

func TestFireDue_CollapsesMissedTicks(t *testing.T) {
	prefs := newFakePrefs()
	prefs.set(1, settings(9, 21, 60))
	c := &clock{now: at(2, 9, 30)}
	eval := make(chanEvaluator, 4)
	s := newTestScheduler(prefs, eval, c)
	ctx := context.Background()
	require.NoError(t, s.ScheduleForUser(ctx, 1))

	s.fireDue(ctx, at(2, 13, 15))
	assert.Equal(t, int64(1), <-eval)
	assert.Empty(t, eval)

	next, _ := s.NextRun(1)
	assert.True(t, next.Equal(at(2, 14, 0)), "got %s", next)
}

func TestRun_FiresAndClearsOnShutdown(t *testing.T) {
	prefs := newFakePrefs()
	prefs.set(1, settings(9, 21, 90))
	c := &clock{now: at(2, 10, 10)}
	eval := make(chanEvaluator, 1)
	s := newTestScheduler(prefs, eval, c)
	require.NoError(t, s.ScheduleForUser(context.Background(), 1))
	c.Set(at(2, 10, 30))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case id := <-eval:
		assert.Equal(t, int64(1), id)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not fire")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, s.Len())
}

func TestRun_WakesOnNewJob(t *testing.T) {
	prefs := newFakePrefs()
	prefs.set(1, settings(9, 21, 90))
	c := &clock{now: at(2, 10, 30)}
	eval := make(chanEvaluator, 1)
	s := newTestScheduler(prefs, eval, c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// The loop is idle; registering a job due now must wake it.
	require.NoError(t, s.ScheduleForUser(context.Background(), 1))
	select {
	case id := <-eval:
		assert.Equal(t, int64(1), id)
	case <-time.After(2 * time.Second):
		t.Fatal("job registered while idle did not fire")
	}
}
