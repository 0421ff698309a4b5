package store

import (
	"context"
	"errors"
	"time"

	"github.com/ykvlv/oazis/internal/domain"
)

// ErrNotFound is returned when a user or daily entry does not exist.
var ErrNotFound = errors.New("not found")

// UserMutation edits a user inside a preference-update transaction and returns
// the local day and goal used to re-stamp that day's entry, if it exists.
type UserMutation func(u *domain.User) (day string, goalML int)

// Repo defines the hydration ledger and preference store operations.
// Every mutating method is a single transaction.
type Repo interface {
	GetUser(ctx context.Context, telegramID int64) (*domain.User, error)
	// CreateUser inserts u unless the user already exists and returns the stored row.
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, bool, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdatePreferences(ctx context.Context, telegramID int64, mutate UserMutation) (*domain.User, error)

	// AddConsumption increments the (user, day) entry, creating it with goalML
	// when missing, and appends a glass_logged event.
	AddConsumption(ctx context.Context, telegramID int64, day string, goalML, volumeML int, at time.Time) (*domain.DailyEntry, error)
	GetDailyEntry(ctx context.Context, telegramID int64, day string) (*domain.DailyEntry, error)
	ListDailyEntries(ctx context.Context, telegramID int64, fromDay string) ([]domain.DailyEntry, error)

	AppendEvent(ctx context.Context, e domain.Event) error
	// LatestEvent returns the newest event of one of types in [from, to), or nil.
	LatestEvent(ctx context.Context, telegramID int64, types []domain.EventType, from, to time.Time) (*domain.Event, error)
	// AppendEventOnce appends e unless an event of the same type exists in [from, to).
	AppendEventOnce(ctx context.Context, e domain.Event, from, to time.Time) (bool, error)

	Close() error
}
