package hydration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/oazis/internal/domain"
	"github.com/ykvlv/oazis/internal/metrics"
	"github.com/ykvlv/oazis/internal/store"
)

// Rescheduler re-aligns a user's reminder job after a preference change.
type Rescheduler interface {
	ScheduleForUser(ctx context.Context, userID int64) error
}

// Progress is today's consumption for a user.
type Progress struct {
	Day        string
	ConsumedML int
	GoalML     int
}

// GoalReached reports whether consumption met the goal.
func (p Progress) GoalReached() bool {
	return p.GoalML > 0 && p.ConsumedML >= p.GoalML
}

// Service orchestrates hydration persistence and rules.
type Service struct {
	repo     store.Repo
	defaults domain.Defaults
	log      *zap.Logger
	now      func() time.Time
	resched  Rescheduler
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service over repo with the given defaults.
func New(repo store.Repo, defaults domain.Defaults, log *zap.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, defaults: defaults, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AttachScheduler sets the Rescheduler notified after user creation and after
// preference, pause and resume changes. The scheduler reads from the service, so it is attached after
// construction.
func (s *Service) AttachScheduler(r Rescheduler) {
	s.resched = r
}

// Defaults returns the system-wide preference fallbacks.
func (s *Service) Defaults() domain.Defaults {
	return s.defaults
}

// EnsureUser returns an existing user or creates one with no overrides.
func (s *Service) EnsureUser(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	u, created, err := s.repo.CreateUser(ctx, &domain.User{TelegramID: userID, CreatedAt: s.now()})
	if err != nil {
		return nil, fmt.Errorf("create user %d: %w", userID, err)
	}
	if created {
		eff := u.Effective(s.defaults)
		s.log.Info("user created",
			zap.Int64("user_id", userID),
			zap.String("timezone", eff.Timezone),
			zap.Int("target_ml", eff.GoalML),
			zap.Int("start_hour", eff.StartHour),
			zap.Int("end_hour", eff.EndHour),
			zap.Int("interval_min", eff.IntervalMinutes),
		)
		s.reschedule(ctx, userID)
	}
	return u, nil
}

// ListUserIDs returns the ids of every known user.
func (s *Service) ListUserIDs(ctx context.Context) ([]int64, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.TelegramID)
	}
	return ids, nil
}

// Settings returns the user's effective preferences, read fresh from storage.
func (s *Service) Settings(ctx context.Context, userID int64) (domain.Settings, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return domain.Settings{}, err
	}
	return u.Effective(s.defaults), nil
}

// RecordGlass adds volumeML (or one default glass when volumeML <= 0) to
// today's entry. Logging is independent of the paused state.
func (s *Service) RecordGlass(ctx context.Context, userID int64, volumeML int) (*domain.DailyEntry, error) {
	if volumeML <= 0 {
		volumeML = s.defaults.GlassVolumeML
	}
	u, err := s.EnsureUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	eff := u.Effective(s.defaults)
	now := s.now()

	entry, err := s.repo.AddConsumption(ctx, userID, domain.DayKey(now, eff.Location), eff.GoalML, volumeML, now)
	if err != nil {
		return nil, err
	}
	metrics.GlassesLogged.Inc()
	s.log.Debug("glass logged",
		zap.Int64("user_id", userID),
		zap.Int("volume_ml", volumeML),
		zap.Int("consumed_ml", entry.ConsumedML),
		zap.Int("goal_ml", entry.GoalML),
	)
	return entry, nil
}

// UpdatePreferences persists upd, re-stamps today's goal when today's entry
// exists, and re-aligns the reminder job when the schedule changed.
func (s *Service) UpdatePreferences(ctx context.Context, userID int64, upd domain.PreferenceUpdate) (*domain.User, error) {
	if upd.Timezone != nil {
		tz, err := domain.ValidateTZ(*upd.Timezone)
		if err != nil {
			return nil, err
		}
		upd.Timezone = &tz
	}
	if _, err := s.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now()
	u, err := s.repo.UpdatePreferences(ctx, userID, func(u *domain.User) (string, int) {
		upd.Apply(u, s.defaults.GlassVolumeML)
		eff := u.Effective(s.defaults)
		return domain.DayKey(now, eff.Location), eff.GoalML
	})
	if err != nil {
		return nil, err
	}

	if upd.TouchesSchedule() {
		s.reschedule(ctx, userID)
	}
	return u, nil
}

// PauseRemindersToday suppresses reminders until the end of the user's local day.
func (s *Service) PauseRemindersToday(ctx context.Context, userID int64) error {
	return s.togglePause(ctx, userID, domain.EventRemindersPaused, "paused_until_end_of_day")
}

// ResumeRemindersToday lifts a pause set earlier the same day.
func (s *Service) ResumeRemindersToday(ctx context.Context, userID int64) error {
	return s.togglePause(ctx, userID, domain.EventRemindersResumed, "resumed_until_end_of_day")
}

func (s *Service) togglePause(ctx context.Context, userID int64, kind domain.EventType, note string) error {
	if _, err := s.EnsureUser(ctx, userID); err != nil {
		return err
	}
	err := s.repo.AppendEvent(ctx, domain.Event{UserID: userID, Timestamp: s.now(), Type: kind, Note: note})
	if err != nil {
		return err
	}
	s.reschedule(ctx, userID)
	return nil
}

func (s *Service) reschedule(ctx context.Context, userID int64) {
	if s.resched == nil {
		return
	}
	if err := s.resched.ScheduleForUser(ctx, userID); err != nil {
		s.log.Error("reschedule failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// RemindersPaused reports whether the latest pause/resume event of the user's
// local day is a pause.
func (s *Service) RemindersPaused(ctx context.Context, userID int64, loc *time.Location) (bool, error) {
	from, to := domain.DayBounds(s.now(), loc)
	ev, err := s.repo.LatestEvent(ctx, userID,
		[]domain.EventType{domain.EventRemindersPaused, domain.EventRemindersResumed}, from, to)
	if err != nil {
		return false, err
	}
	return ev != nil && ev.Type == domain.EventRemindersPaused, nil
}

// GoalNotified reports whether a goal-reached notice was recorded today.
func (s *Service) GoalNotified(ctx context.Context, userID int64, loc *time.Location) (bool, error) {
	from, to := domain.DayBounds(s.now(), loc)
	ev, err := s.repo.LatestEvent(ctx, userID, []domain.EventType{domain.EventGoalNotified}, from, to)
	if err != nil {
		return false, err
	}
	return ev != nil, nil
}

// ClaimGoalNotification records today's goal_notified event unless one exists.
// It returns true for exactly one caller per user and local day.
func (s *Service) ClaimGoalNotification(ctx context.Context, userID int64, loc *time.Location) (bool, error) {
	now := s.now()
	from, to := domain.DayBounds(now, loc)
	return s.repo.AppendEventOnce(ctx, domain.Event{
		UserID:    userID,
		Timestamp: now,
		Type:      domain.EventGoalNotified,
		Note:      "daily goal reached",
	}, from, to)
}

// TodayProgress returns today's consumption and goal. Without an entry the
// goal is the current effective target.
func (s *Service) TodayProgress(ctx context.Context, userID int64, eff domain.Settings) (Progress, error) {
	day := domain.DayKey(s.now(), eff.Location)
	p := Progress{Day: day, GoalML: eff.GoalML}

	entry, err := s.repo.GetDailyEntry(ctx, userID, day)
	if errors.Is(err, store.ErrNotFound) {
		return p, nil
	}
	if err != nil {
		return Progress{}, err
	}
	p.ConsumedML = entry.ConsumedML
	p.GoalML = entry.GoalML
	return p, nil
}

// Stats summarises the last days (today included).
func (s *Service) Stats(ctx context.Context, userID int64, days int) (domain.Stats, error) {
	if days < 1 {
		days = 1
	}
	u, err := s.EnsureUser(ctx, userID)
	if err != nil {
		return domain.Stats{}, err
	}
	eff := u.Effective(s.defaults)
	now := s.now().In(eff.Location)
	today := domain.DayKey(now, eff.Location)
	y, m, d := now.Date()
	fromDay := time.Date(y, m, d-(days-1), 12, 0, 0, 0, eff.Location).Format(time.DateOnly)

	entries, err := s.repo.ListDailyEntries(ctx, userID, fromDay)
	if err != nil {
		return domain.Stats{}, err
	}

	st := domain.Stats{DaysConsidered: days, TodayGoalML: eff.GoalML}
	for _, e := range entries {
		st.TotalML += e.ConsumedML
		if e.GoalReached() {
			st.GoalHits++
		}
		if e.Day == today {
			st.TodayConsumedML = e.ConsumedML
			st.TodayGoalML = e.GoalML
		}
	}
	st.AverageML = st.TotalML / days
	return st, nil
}
