package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ykvlv/oazis/internal/domain"
	"github.com/ykvlv/oazis/internal/hydration"
)

func testSettings(t *testing.T) domain.Settings {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	return domain.Settings{
		Timezone:        "Europe/Paris",
		Location:        loc,
		StartHour:       9,
		EndHour:         21,
		IntervalMinutes: 90,
		GoalML:          2000,
		GoalGlasses:     8,
		GlassVolumeML:   250,
	}
}

func fixedAt(eff domain.Settings, hour, minute int) func() time.Time {
	t := time.Date(2025, time.June, 2, hour, minute, 0, 0, eff.Location)
	return func() time.Time { return t }
}

func TestEvaluate_RoutineReminder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	eff := testSettings(t)

	ledger := NewMockLedger(ctrl)
	sender := NewMockSender(ctrl)
	ledger.EXPECT().Settings(ctx, int64(1)).Return(eff, nil)
	ledger.EXPECT().RemindersPaused(ctx, int64(1), eff.Location).Return(false, nil)
	ledger.EXPECT().TodayProgress(ctx, int64(1), eff).Return(hydration.Progress{Day: "2025-06-02", ConsumedML: 500, GoalML: 2000}, nil)

	var got Notice
	sender.EXPECT().Notify(ctx, int64(1), gomock.Any()).DoAndReturn(func(_ context.Context, _ int64, n Notice) error {
		got = n
		return nil
	})

	NewEvaluator(ledger, sender, zap.NewNop(), WithClock(fixedAt(eff, 10, 30))).Evaluate(ctx, 1)

	assert.Equal(t, KindRoutine, got.Kind)
	assert.Equal(t, 500, got.ConsumedML)
	assert.Equal(t, 2000, got.GoalML)
	assert.Equal(t, 250, got.GlassVolumeML)
	assert.Equal(t, "10:30", got.LocalTime.Format("15:04"))
}

func TestEvaluate_OutsideWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	eff := testSettings(t)

	ledger := NewMockLedger(ctrl)
	sender := NewMockSender(ctrl)
	ledger.EXPECT().Settings(ctx, int64(1)).Return(eff, nil)

	NewEvaluator(ledger, sender, zap.NewNop(), WithClock(fixedAt(eff, 21, 0))).Evaluate(ctx, 1)
}

func TestEvaluate_InvalidPreferences(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	eff := testSettings(t)
	eff.IntervalMinutes = 0

	ledger := NewMockLedger(ctrl)
	sender := NewMockSender(ctrl)
	ledger.EXPECT().Settings(ctx, int64(1)).Return(eff, nil)

	NewEvaluator(ledger, sender, zap.NewNop(), WithClock(fixedAt(eff, 12, 0))).Evaluate(ctx, 1)
}

func TestEvaluate_PausedSuppressesSend(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	eff := testSettings(t)

	ledger := NewMockLedger(ctrl)
	sender := NewMockSender(ctrl)
	ledger.EXPECT().Settings(ctx, int64(1)).Return(eff, nil)
	ledger.EXPECT().RemindersPaused(ctx, int64(1), eff.Location).Return(true, nil)

	NewEvaluator(ledger, sender, zap.NewNop(), WithClock(fixedAt(eff, 12, 0))).Evaluate(ctx, 1)
}

func TestEvaluate_GoalNoticeSentOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	eff := testSettings(t)
	progress := hydration.Progress{Day: "2025-06-02", ConsumedML: 2000, GoalML: 2000}

	ledger := NewMockLedger(ctrl)
	sender := NewMockSender(ctrl)
	ledger.EXPECT().Settings(ctx, int64(1)).Return(eff, nil).Times(2)
	ledger.EXPECT().RemindersPaused(ctx, int64(1), eff.Location).Return(false, nil).Times(2)
	ledger.EXPECT().TodayProgress(ctx, int64(1), eff).Return(progress, nil).Times(2)
	gomock.InOrder(
		ledger.EXPECT().ClaimGoalNotification(ctx, int64(1), eff.Location).Return(true, nil),
		ledger.EXPECT().ClaimGoalNotification(ctx, int64(1), eff.Location).Return(false, nil),
	)
	sender.EXPECT().Notify(ctx, int64(1), gomock.Any()).DoAndReturn(func(_ context.Context, _ int64, n Notice) error {
		assert.Equal(t, KindGoalReached, n.Kind)
		assert.Equal(t, 2000, n.ConsumedML)
		return nil
	}).Times(1)

	ev := NewEvaluator(ledger, sender, zap.NewNop(), WithClock(fixedAt(eff, 15, 0)))
	ev.Evaluate(ctx, 1)
	ev.Evaluate(ctx, 1)
}

func TestEvaluate_SendFailureIsContained(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	eff := testSettings(t)

	ledger := NewMockLedger(ctrl)
	sender := NewMockSender(ctrl)
	ledger.EXPECT().Settings(ctx, int64(1)).Return(eff, nil)
	ledger.EXPECT().RemindersPaused(ctx, int64(1), eff.Location).Return(false, nil)
	ledger.EXPECT().TodayProgress(ctx, int64(1), eff).Return(hydration.Progress{GoalML: 2000}, nil)
	sender.EXPECT().Notify(ctx, int64(1), gomock.Any()).Return(errors.New("Forbidden: bot was blocked by the user"))

	assert.NotPanics(t, func() {
		NewEvaluator(ledger, sender, zap.NewNop(), WithClock(fixedAt(eff, 12, 0))).Evaluate(ctx, 1)
	})
}

func TestEvaluate_StoreFailureStopsEarly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	eff := testSettings(t)

	ledger := NewMockLedger(ctrl)
	sender := NewMockSender(ctrl)
	ledger.EXPECT().Settings(ctx, int64(1)).Return(eff, nil)
	ledger.EXPECT().RemindersPaused(ctx, int64(1), eff.Location).Return(false, errors.New("database is locked"))

	NewEvaluator(ledger, sender, zap.NewNop(), WithClock(fixedAt(eff, 12, 0))).Evaluate(ctx, 1)
}

func TestEvaluate_RecoversFromPanic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	eff := testSettings(t)

	ledger := NewMockLedger(ctrl)
	sender := NewMockSender(ctrl)
	ledger.EXPECT().Settings(ctx, int64(1)).Return(eff, nil)
	ledger.EXPECT().RemindersPaused(ctx, int64(1), eff.Location).Return(false, nil)
	ledger.EXPECT().TodayProgress(ctx, int64(1), eff).Return(hydration.Progress{GoalML: 2000}, nil)
	sender.EXPECT().Notify(ctx, int64(1), gomock.Any()).Do(func(context.Context, int64, Notice) {
		panic("nil keyboard")
	})

	assert.NotPanics(t, func() {
		NewEvaluator(ledger, sender, zap.NewNop(), WithClock(fixedAt(eff, 12, 0))).Evaluate(ctx, 1)
	})
}
