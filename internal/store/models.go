package store

import (
	"database/sql"
	"time"

	"github.com/ykvlv/oazis/internal/domain"
)

type userRow struct {
	TelegramID              int64          `db:"telegram_id"`
	Role                    string         `db:"role"`
	Timezone                sql.NullString `db:"timezone"`
	DailyTargetML           sql.NullInt64  `db:"daily_target_ml"`
	DailyTargetGlasses      sql.NullInt64  `db:"daily_target_glasses"`
	ReminderStartHour       sql.NullInt64  `db:"reminder_start_hour"`
	ReminderEndHour         sql.NullInt64  `db:"reminder_end_hour"`
	ReminderIntervalMinutes sql.NullInt64  `db:"reminder_interval_minutes"`
	CreatedAt               int64          `db:"created_at"`
}

func (r userRow) toDomain() domain.User {
	u := domain.User{
		TelegramID:              r.TelegramID,
		Role:                    r.Role,
		DailyTargetML:           fromNullInt(r.DailyTargetML),
		DailyTargetGlasses:      fromNullInt(r.DailyTargetGlasses),
		ReminderStartHour:       fromNullInt(r.ReminderStartHour),
		ReminderEndHour:         fromNullInt(r.ReminderEndHour),
		ReminderIntervalMinutes: fromNullInt(r.ReminderIntervalMinutes),
		CreatedAt:               time.Unix(r.CreatedAt, 0).UTC(),
	}
	if r.Timezone.Valid {
		tz := r.Timezone.String
		u.Timezone = &tz
	}
	return u
}

type dailyRow struct {
	ID         int64  `db:"id"`
	UserID     int64  `db:"user_id"`
	Day        string `db:"day"`
	GoalML     int    `db:"goal_ml"`
	ConsumedML int    `db:"consumed_ml"`
	UpdatedAt  int64  `db:"updated_at"`
}

func (r dailyRow) toDomain() domain.DailyEntry {
	return domain.DailyEntry{
		ID:         r.ID,
		UserID:     r.UserID,
		Day:        r.Day,
		GoalML:     r.GoalML,
		ConsumedML: r.ConsumedML,
		UpdatedAt:  time.Unix(r.UpdatedAt, 0).UTC(),
	}
}

type eventRow struct {
	ID        int64          `db:"id"`
	UserID    int64          `db:"user_id"`
	Timestamp int64          `db:"ts"`
	Type      string         `db:"event_type"`
	Note      sql.NullString `db:"note"`
}

func (r eventRow) toDomain() domain.Event {
	return domain.Event{
		ID:        r.ID,
		UserID:    r.UserID,
		Timestamp: time.Unix(r.Timestamp, 0).UTC(),
		Type:      domain.EventType(r.Type),
		Note:      r.Note.String,
	}
}

func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func fromNullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func toNullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func noteOrNull(note string) sql.NullString {
	return sql.NullString{String: note, Valid: note != ""}
}
