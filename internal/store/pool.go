package store

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ykvlv/oazis/internal/domain"
)

// Pooled bounds the number of concurrent storage calls so that a burst of
// reminder evaluations cannot pile unbounded goroutines onto the database.
// Waiting for a slot honours ctx.
type Pooled struct {
	next Repo
	sem  *semaphore.Weighted
}

// NewPooled wraps next with at most workers concurrent calls.
func NewPooled(next Repo, workers int) *Pooled {
	if workers < 1 {
		workers = 1
	}
	return &Pooled{next: next, sem: semaphore.NewWeighted(int64(workers))}
}

func (p *Pooled) acquire(ctx context.Context) (func(), error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { p.sem.Release(1) }, nil
}

func (p *Pooled) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.next.GetUser(ctx, telegramID)
}

func (p *Pooled) CreateUser(ctx context.Context, u *domain.User) (*domain.User, bool, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, false, err
	}
	defer release()
	return p.next.CreateUser(ctx, u)
}

func (p *Pooled) ListUsers(ctx context.Context) ([]domain.User, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.next.ListUsers(ctx)
}

func (p *Pooled) UpdatePreferences(ctx context.Context, telegramID int64, mutate UserMutation) (*domain.User, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.next.UpdatePreferences(ctx, telegramID, mutate)
}

func (p *Pooled) AddConsumption(ctx context.Context, telegramID int64, day string, goalML, volumeML int, at time.Time) (*domain.DailyEntry, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.next.AddConsumption(ctx, telegramID, day, goalML, volumeML, at)
}

func (p *Pooled) GetDailyEntry(ctx context.Context, telegramID int64, day string) (*domain.DailyEntry, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.next.GetDailyEntry(ctx, telegramID, day)
}

func (p *Pooled) ListDailyEntries(ctx context.Context, telegramID int64, fromDay string) ([]domain.DailyEntry, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.next.ListDailyEntries(ctx, telegramID, fromDay)
}

func (p *Pooled) AppendEvent(ctx context.Context, e domain.Event) error {
	release, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return p.next.AppendEvent(ctx, e)
}

func (p *Pooled) LatestEvent(ctx context.Context, telegramID int64, types []domain.EventType, from, to time.Time) (*domain.Event, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.next.LatestEvent(ctx, telegramID, types, from, to)
}

func (p *Pooled) AppendEventOnce(ctx context.Context, e domain.Event, from, to time.Time) (bool, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()
	return p.next.AppendEventOnce(ctx, e, from, to)
}

// Close closes the wrapped repository without waiting for in-flight calls.
func (p *Pooled) Close() error {
	return p.next.Close()
}
