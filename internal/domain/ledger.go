package domain

import "time"

// EventType enumerates hydration timeline entries.
type EventType string

const (
	EventGlassLogged      EventType = "glass_logged"
	EventRemindersPaused  EventType = "reminders_paused"
	EventRemindersResumed EventType = "reminders_resumed"
	EventGoalNotified     EventType = "goal_notified"
)

// DailyEntry aggregates one user's consumption for one local calendar day.
type DailyEntry struct {
	ID         int64
	UserID     int64
	Day        string // YYYY-MM-DD in the user's timezone
	GoalML     int
	ConsumedML int
	UpdatedAt  time.Time // UTC
}

// GoalReached reports whether consumption met the snapshotted goal.
func (e DailyEntry) GoalReached() bool {
	return e.GoalML > 0 && e.ConsumedML >= e.GoalML
}

// Event is an append-only hydration timeline record.
type Event struct {
	ID        int64
	UserID    int64
	Timestamp time.Time // UTC
	Type      EventType
	Note      string
}

// Stats summarises recent hydration for a user.
type Stats struct {
	DaysConsidered  int
	TotalML         int
	AverageML       int
	GoalHits        int
	TodayConsumedML int
	TodayGoalML     int
}
