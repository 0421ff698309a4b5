package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/oazis/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db *sqlx.DB
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc registers as "sqlite"; sqlx needs a known name for '?' binds.
	db := sqlx.NewDb(raw, "sqlite3")

	// Single-writer engine: one connection serialises every transaction.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return NewSQLiteRepo(db), nil
}

// NewSQLiteRepo wraps an already configured and migrated database.
func NewSQLiteRepo(db *sqlx.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db}
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const selectUser = `
	SELECT telegram_id, role, timezone, daily_target_ml, daily_target_glasses,
	       reminder_start_hour, reminder_end_hour, reminder_interval_minutes, created_at
	FROM users`

// GetUser returns a user by Telegram id or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	return getUser(ctx, r.db, telegramID)
}

func getUser(ctx context.Context, q sqlx.QueryerContext, telegramID int64) (*domain.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, q, &row, selectUser+` WHERE telegram_id = ?`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", telegramID, err)
	}
	u := row.toDomain()
	return &u, nil
}

// CreateUser inserts u if no row exists for its id. The bool reports whether a row was created.
func (r *SQLiteRepo) CreateUser(ctx context.Context, u *domain.User) (*domain.User, bool, error) {
	if u == nil {
		return nil, false, errors.New("nil user")
	}
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	role := u.Role
	if role == "" {
		role = "user"
	}

	var (
		stored   *domain.User
		inserted bool
	)
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO users (
				telegram_id, role, timezone, daily_target_ml, daily_target_glasses,
				reminder_start_hour, reminder_end_hour, reminder_interval_minutes, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(telegram_id) DO NOTHING`,
			u.TelegramID, role, toNullString(u.Timezone),
			toNullInt(u.DailyTargetML), toNullInt(u.DailyTargetGlasses),
			toNullInt(u.ReminderStartHour), toNullInt(u.ReminderEndHour),
			toNullInt(u.ReminderIntervalMinutes), created.UTC().Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert user %d: %w", u.TelegramID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = n > 0
		stored, err = getUser(ctx, tx, u.TelegramID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return stored, inserted, nil
}

// ListUsers returns every registered user ordered by id.
func (r *SQLiteRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, selectUser+` ORDER BY telegram_id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	res := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toDomain())
	}
	return res, nil
}

// UpdatePreferences applies mutate to the stored user and re-stamps the goal of
// the returned day's entry when that entry already exists.
func (r *SQLiteRepo) UpdatePreferences(ctx context.Context, telegramID int64, mutate UserMutation) (*domain.User, error) {
	var updated *domain.User
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		u, err := getUser(ctx, tx, telegramID)
		if err != nil {
			return err
		}
		day, goalML := mutate(u)

		_, err = tx.ExecContext(ctx, `
			UPDATE users SET
				timezone                  = ?,
				daily_target_ml           = ?,
				daily_target_glasses      = ?,
				reminder_start_hour       = ?,
				reminder_end_hour         = ?,
				reminder_interval_minutes = ?
			WHERE telegram_id = ?`,
			toNullString(u.Timezone), toNullInt(u.DailyTargetML), toNullInt(u.DailyTargetGlasses),
			toNullInt(u.ReminderStartHour), toNullInt(u.ReminderEndHour),
			toNullInt(u.ReminderIntervalMinutes), telegramID,
		)
		if err != nil {
			return fmt.Errorf("update user %d: %w", telegramID, err)
		}

		if day != "" {
			_, err = tx.ExecContext(ctx, `
				UPDATE daily_hydration SET goal_ml = ?, updated_at = ?
				WHERE user_id = ? AND day = ?`,
				goalML, time.Now().UTC().Unix(), telegramID, day,
			)
			if err != nil {
				return fmt.Errorf("restamp goal %d/%s: %w", telegramID, day, err)
			}
		}
		updated = u
		return nil
	})
	return updated, err
}

const selectDaily = `
	SELECT id, user_id, day, goal_ml, consumed_ml, updated_at
	FROM daily_hydration`

// AddConsumption upserts the (user, day) entry and appends a glass_logged event.
func (r *SQLiteRepo) AddConsumption(ctx context.Context, telegramID int64, day string, goalML, volumeML int, at time.Time) (*domain.DailyEntry, error) {
	var entry domain.DailyEntry
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		ts := at.UTC().Unix()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO daily_hydration (user_id, day, goal_ml, consumed_ml, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id, day) DO UPDATE SET
				consumed_ml = daily_hydration.consumed_ml + excluded.consumed_ml,
				updated_at  = excluded.updated_at`,
			telegramID, day, goalML, volumeML, ts,
		)
		if err != nil {
			return fmt.Errorf("upsert daily entry %d/%s: %w", telegramID, day, err)
		}

		var row dailyRow
		if err := tx.GetContext(ctx, &row, selectDaily+` WHERE user_id = ? AND day = ?`, telegramID, day); err != nil {
			return fmt.Errorf("read daily entry %d/%s: %w", telegramID, day, err)
		}
		entry = row.toDomain()

		return insertEvent(ctx, tx, domain.Event{
			UserID:    telegramID,
			Timestamp: at,
			Type:      domain.EventGlassLogged,
			Note:      fmt.Sprintf("%dml", volumeML),
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetDailyEntry returns the (user, day) entry or ErrNotFound.
func (r *SQLiteRepo) GetDailyEntry(ctx context.Context, telegramID int64, day string) (*domain.DailyEntry, error) {
	var row dailyRow
	err := r.db.GetContext(ctx, &row, selectDaily+` WHERE user_id = ? AND day = ?`, telegramID, day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get daily entry %d/%s: %w", telegramID, day, err)
	}
	e := row.toDomain()
	return &e, nil
}

// ListDailyEntries returns entries with day >= fromDay, oldest first.
func (r *SQLiteRepo) ListDailyEntries(ctx context.Context, telegramID int64, fromDay string) ([]domain.DailyEntry, error) {
	var rows []dailyRow
	err := r.db.SelectContext(ctx, &rows, selectDaily+` WHERE user_id = ? AND day >= ? ORDER BY day`, telegramID, fromDay)
	if err != nil {
		return nil, fmt.Errorf("list daily entries %d: %w", telegramID, err)
	}
	res := make([]domain.DailyEntry, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toDomain())
	}
	return res, nil
}

// AppendEvent appends a single event.
func (r *SQLiteRepo) AppendEvent(ctx context.Context, e domain.Event) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		return insertEvent(ctx, tx, e)
	})
}

func insertEvent(ctx context.Context, ex sqlx.ExecerContext, e domain.Event) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO hydration_events (user_id, ts, event_type, note)
		VALUES (?, ?, ?, ?)`,
		e.UserID, ts.UTC().Unix(), string(e.Type), noteOrNull(e.Note),
	)
	if err != nil {
		return fmt.Errorf("append %s event for %d: %w", e.Type, e.UserID, err)
	}
	return nil
}

// LatestEvent returns the newest matching event in [from, to) or nil when none exists.
func (r *SQLiteRepo) LatestEvent(ctx context.Context, telegramID int64, types []domain.EventType, from, to time.Time) (*domain.Event, error) {
	if len(types) == 0 {
		return nil, nil
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	query, args, err := sqlx.In(`
		SELECT id, user_id, ts, event_type, note
		FROM hydration_events
		WHERE user_id = ? AND event_type IN (?) AND ts >= ? AND ts < ?
		ORDER BY ts DESC, id DESC
		LIMIT 1`,
		telegramID, names, from.UTC().Unix(), to.UTC().Unix(),
	)
	if err != nil {
		return nil, err
	}

	var row eventRow
	err = r.db.GetContext(ctx, &row, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest event %d: %w", telegramID, err)
	}
	e := row.toDomain()
	return &e, nil
}

// AppendEventOnce checks for an event of e.Type in [from, to) and appends e
// only if none exists, within one transaction.
func (r *SQLiteRepo) AppendEventOnce(ctx context.Context, e domain.Event, from, to time.Time) (bool, error) {
	appended := false
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		err := tx.GetContext(ctx, &n, `
			SELECT COUNT(*) FROM hydration_events
			WHERE user_id = ? AND event_type = ? AND ts >= ? AND ts < ?`,
			e.UserID, string(e.Type), from.UTC().Unix(), to.UTC().Unix(),
		)
		if err != nil {
			return fmt.Errorf("check %s event for %d: %w", e.Type, e.UserID, err)
		}
		if n > 0 {
			return nil
		}
		if err := insertEvent(ctx, tx, e); err != nil {
			return err
		}
		appended = true
		return nil
	})
	return appended, err
}
