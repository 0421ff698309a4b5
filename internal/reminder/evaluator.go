// Package reminder decides, on every scheduled tick, whether a user gets a
// routine reminder, a one-off goal notice, or nothing.
package reminder

//go:generate mockgen -source=evaluator.go -destination=evaluator_mock.go -package=reminder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/oazis/internal/domain"
	"github.com/ykvlv/oazis/internal/hydration"
	"github.com/ykvlv/oazis/internal/metrics"
)

// Kind tells the gateway which message to render.
type Kind int

const (
	KindRoutine Kind = iota
	KindGoalReached
)

// Notice is what the gateway renders for one user.
type Notice struct {
	Kind          Kind
	ConsumedML    int
	GoalML        int
	GlassVolumeML int
	// LocalTime is the evaluation instant in the user's timezone.
	LocalTime time.Time
}

// Sender delivers a notice to a user. telegram.Router implements this.
type Sender interface {
	Notify(ctx context.Context, userID int64, n Notice) error
}

// Ledger is the slice of hydration.Service the evaluator reads and claims from.
type Ledger interface {
	Settings(ctx context.Context, userID int64) (domain.Settings, error)
	RemindersPaused(ctx context.Context, userID int64, loc *time.Location) (bool, error)
	TodayProgress(ctx context.Context, userID int64, eff domain.Settings) (hydration.Progress, error)
	ClaimGoalNotification(ctx context.Context, userID int64, loc *time.Location) (bool, error)
}

// Evaluator runs the per-tick decision for one user.
type Evaluator struct {
	ledger Ledger
	sender Sender
	log    *zap.Logger
	now    func() time.Time
}

// Option customises an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(ledger Ledger, sender Sender, log *zap.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{ledger: ledger, sender: sender, log: log, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs one tick for userID. Failures are logged and counted; they
// never escape, so the user's recurrence is unaffected.
func (e *Evaluator) Evaluate(ctx context.Context, userID int64) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ReminderEvaluations.WithLabelValues(metrics.OutcomeStoreFailed).Inc()
			e.log.Error("reminder evaluation panicked", zap.Int64("user_id", userID), zap.Any("panic", r))
		}
	}()
	outcome := e.evaluate(ctx, userID)
	metrics.ReminderEvaluations.WithLabelValues(outcome).Inc()
}

func (e *Evaluator) evaluate(ctx context.Context, userID int64) string {
	log := e.log.With(zap.Int64("user_id", userID))

	eff, err := e.ledger.Settings(ctx, userID)
	if err != nil {
		log.Error("load settings failed", zap.Error(err))
		return metrics.OutcomeStoreFailed
	}
	w := eff.Window()
	if err := w.Validate(); err != nil {
		log.Debug("reminder suppressed: invalid preferences", zap.Error(err))
		return metrics.OutcomeInvalidConfig
	}
	now := e.now()
	if !w.Contains(now) {
		log.Debug("reminder suppressed: outside window", zap.Time("now", now))
		return metrics.OutcomeOutsideWindow
	}

	paused, err := e.ledger.RemindersPaused(ctx, userID, eff.Location)
	if err != nil {
		log.Error("read pause state failed", zap.Error(err))
		return metrics.OutcomeStoreFailed
	}
	if paused {
		log.Debug("reminder suppressed: paused for today")
		return metrics.OutcomePaused
	}

	p, err := e.ledger.TodayProgress(ctx, userID, eff)
	if err != nil {
		log.Error("read progress failed", zap.Error(err))
		return metrics.OutcomeStoreFailed
	}
	n := Notice{
		Kind:          KindRoutine,
		ConsumedML:    p.ConsumedML,
		GoalML:        p.GoalML,
		GlassVolumeML: eff.GlassVolumeML,
		LocalTime:     now.In(eff.Location),
	}

	if p.GoalReached() {
		claimed, err := e.ledger.ClaimGoalNotification(ctx, userID, eff.Location)
		if err != nil {
			log.Error("claim goal notification failed", zap.Error(err))
			return metrics.OutcomeStoreFailed
		}
		if !claimed {
			log.Debug("reminder suppressed: goal already notified")
			return metrics.OutcomeGoalDone
		}
		n.Kind = KindGoalReached
		if err := e.sender.Notify(ctx, userID, n); err != nil {
			log.Error("send goal notice failed", zap.Error(err))
			return metrics.OutcomeSendFailed
		}
		log.Info("goal notice sent", zap.Int("consumed_ml", p.ConsumedML), zap.Int("goal_ml", p.GoalML))
		return metrics.OutcomeGoalNotified
	}

	if err := e.sender.Notify(ctx, userID, n); err != nil {
		log.Error("send reminder failed", zap.Error(err))
		return metrics.OutcomeSendFailed
	}
	log.Debug("reminder sent", zap.Int("consumed_ml", p.ConsumedML), zap.Int("goal_ml", p.GoalML))
	return metrics.OutcomeSent
}
