package telegram

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/oazis/internal/domain"
)

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) sendWithMarkup(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

func (r *Router) alert(id, text string) {
	_, _ = r.bot.Request(tgbotapi.NewCallbackWithAlert(id, text))
}

func (r *Router) answerAndSend(chatID int64, cbID, text string, markup any) {
	_ = r.answerCallback(cbID, "")
	r.sendWithMarkup(chatID, text, markup)
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	if _, err := r.svc.EnsureUser(ctx, chatID); err != nil {
		r.log.Error("ensure user failed", zap.Int64("user_id", chatID), zap.Error(err))
		r.sendText(chatID, "Profile initialization error. Please try again later.")
		return
	}
	r.sendWithMarkup(chatID, startText, startKeyboard())
	r.sendWithMarkup(chatID, helpText, mainMenuKeyboard(r.paused(ctx, chatID)))
}

func (r *Router) handleDrink(ctx context.Context, chatID int64, volumeML int) {
	entry, err := r.svc.RecordGlass(ctx, chatID, volumeML)
	if err != nil {
		r.log.Error("record glass failed", zap.Int64("user_id", chatID), zap.Error(err))
		r.sendText(chatID, "Could not log your glass. Please try again.")
		return
	}
	if volumeML <= 0 {
		volumeML = r.svc.Defaults().GlassVolumeML
	}
	r.sendWithMarkup(chatID, loggedText(entry), drinkKeyboard(volumeML))
}

func (r *Router) handleDrinkCallback(ctx context.Context, chatID int64, data, cbID string) {
	volume, err := strconv.Atoi(strings.TrimPrefix(data, cbDrink))
	if err != nil || volume <= 0 {
		r.alert(cbID, "Invalid button.")
		return
	}
	_ = r.answerCallback(cbID, "Hydration logged.")
	r.handleDrink(ctx, chatID, volume)
}

func (r *Router) handleHub(ctx context.Context, chatID int64) {
	eff, err := r.settings(ctx, chatID)
	if err != nil {
		r.sendText(chatID, "Error reading your data.")
		return
	}
	p, err := r.svc.TodayProgress(ctx, chatID, eff)
	if err != nil {
		r.log.Error("read progress failed", zap.Int64("user_id", chatID), zap.Error(err))
		r.sendText(chatID, "Error reading your data.")
		return
	}
	r.log.Info("hub opened",
		zap.Int64("user_id", chatID),
		zap.Int("target_ml", p.GoalML),
		zap.Int("consumed_ml", p.ConsumedML),
		zap.Bool("goal_reached", p.GoalReached()),
	)
	r.sendWithMarkup(chatID, hubText(p), hubKeyboard())
}

func (r *Router) handleHydration(ctx context.Context, chatID int64) {
	eff, err := r.settings(ctx, chatID)
	if err != nil {
		r.sendText(chatID, "Error reading your data.")
		return
	}
	p, err := r.svc.TodayProgress(ctx, chatID, eff)
	if err != nil {
		r.log.Error("read progress failed", zap.Int64("user_id", chatID), zap.Error(err))
		r.sendText(chatID, "Error reading your data.")
		return
	}
	paused := r.paused(ctx, chatID)
	celebrated, err := r.svc.GoalNotified(ctx, chatID, eff.Location)
	if err != nil {
		r.log.Warn("read goal state failed", zap.Int64("user_id", chatID), zap.Error(err))
	}
	next, scheduled := r.nextRun(chatID)
	r.sendWithMarkup(chatID, hydrationText(eff, p, paused, celebrated, next, scheduled), hydrationKeyboard(eff.GlassVolumeML, paused))
}

func (r *Router) handleStats(ctx context.Context, chatID int64) {
	st, err := r.svc.Stats(ctx, chatID, statsDays)
	if err != nil {
		r.log.Error("stats failed", zap.Int64("user_id", chatID), zap.Error(err))
		r.sendText(chatID, "Error computing your statistics.")
		return
	}
	r.log.Info("stats viewed",
		zap.Int64("user_id", chatID),
		zap.Int("days", st.DaysConsidered),
		zap.Int("average_ml", st.AverageML),
		zap.Int("goal_hits", st.GoalHits),
	)
	r.sendWithMarkup(chatID, statsText(st), hubKeyboard())
}

func (r *Router) handleSettings(ctx context.Context, chatID int64) {
	if _, err := r.svc.EnsureUser(ctx, chatID); err != nil {
		r.log.Error("ensure user failed", zap.Int64("user_id", chatID), zap.Error(err))
		r.sendText(chatID, "Error opening settings.")
		return
	}
	r.sendWithMarkup(chatID, settingsText, settingsKeyboard())
}

// settings ensures the user exists and returns its effective settings.
func (r *Router) settings(ctx context.Context, chatID int64) (domain.Settings, error) {
	u, err := r.svc.EnsureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensure user failed", zap.Int64("user_id", chatID), zap.Error(err))
		return domain.Settings{}, err
	}
	return u.Effective(r.svc.Defaults()), nil
}

func (r *Router) paused(ctx context.Context, chatID int64) bool {
	eff, err := r.svc.Settings(ctx, chatID)
	if err != nil {
		return false
	}
	paused, err := r.svc.RemindersPaused(ctx, chatID, eff.Location)
	if err != nil {
		r.log.Warn("read pause state failed", zap.Int64("user_id", chatID), zap.Error(err))
		return false
	}
	return paused
}

func (r *Router) nextRun(chatID int64) (t time.Time, ok bool) {
	if r.sched == nil {
		return t, false
	}
	return r.sched.NextRun(chatID)
}

// --- Preferences ---

// updatePreferences saves upd and reports the outcome to the chat.
func (r *Router) updatePreferences(ctx context.Context, chatID int64, upd domain.PreferenceUpdate) (domain.Settings, bool) {
	u, err := r.svc.UpdatePreferences(ctx, chatID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTimezone) {
			r.sendText(chatID, "Invalid timezone. Example: Europe/Paris")
			return domain.Settings{}, false
		}
		r.log.Error("update preferences failed", zap.Int64("user_id", chatID), zap.Error(err))
		r.sendText(chatID, "Could not save your settings.")
		return domain.Settings{}, false
	}
	return u.Effective(r.svc.Defaults()), true
}

func (r *Router) handleGoalCallback(ctx context.Context, chatID int64, data, cbID string) {
	count, err := strconv.Atoi(strings.TrimPrefix(data, cbGoal))
	if err != nil {
		r.alert(cbID, "Invalid choice.")
		return
	}
	if count < minGoalGlasses || count > maxGoalGlasses {
		r.alert(cbID, "Pick between 4 and 10 glasses.")
		return
	}
	_ = r.answerCallback(cbID, "Goal saved.")
	eff, ok := r.updatePreferences(ctx, chatID, domain.PreferenceUpdate{TargetGlasses: &count})
	if !ok {
		return
	}
	r.sendWithMarkup(chatID,
		fmt.Sprintf("🎯 Goal set to %d glasses/day (≈ %s).\n🕒 Now pick your reminder window.", count, domain.FormatVolume(eff.GoalML)),
		windowKeyboard())
}

func (r *Router) handleWindowCallback(ctx context.Context, chatID int64, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	payload := strings.TrimPrefix(data, cbWindow)
	if payload == cbCustom {
		r.sendText(chatID, "Enter your reminder window as HH-HH (e.g. 9-21 or 08:00–20:00):")
		r.setPending(chatID, pendingWindow)
		return
	}
	r.applyWindow(ctx, chatID, payload)
}

func (r *Router) applyWindow(ctx context.Context, chatID int64, text string) {
	start, end, err := domain.ParseWindow(text)
	if err != nil {
		r.sendText(chatID, "Invalid window. Example: 9-21 (start before end, end at most 24).")
		return
	}
	if _, ok := r.updatePreferences(ctx, chatID, domain.PreferenceUpdate{StartHour: &start, EndHour: &end}); !ok {
		return
	}
	r.sendWithMarkup(chatID,
		fmt.Sprintf("🕒 Reminders between %dh and %dh.\n⏱️ Now pick the frequency.", start, end),
		freqKeyboard())
}

func (r *Router) handleFreqCallback(ctx context.Context, chatID int64, data, cbID string) {
	payload := strings.TrimPrefix(data, cbFreq)
	if payload == cbCustom {
		_ = r.answerCallback(cbID, "")
		r.sendText(chatID, "Enter an interval, e.g. 45m, 1h, 1h30m, 90:")
		r.setPending(chatID, pendingInterval)
		return
	}
	minutes, err := strconv.Atoi(payload)
	if err != nil || !slices.Contains(frequencyPresets, minutes) {
		r.alert(cbID, "Unsupported interval.")
		return
	}
	_ = r.answerCallback(cbID, "Frequency saved.")
	r.applyInterval(ctx, chatID, minutes)
}

func (r *Router) applyInterval(ctx context.Context, chatID int64, minutes int) {
	eff, ok := r.updatePreferences(ctx, chatID, domain.PreferenceUpdate{IntervalMinutes: &minutes})
	if !ok {
		return
	}
	r.sendWithMarkup(chatID, summaryText(eff), hubKeyboard())
}

func (r *Router) handleTZCallback(ctx context.Context, chatID int64, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	val := strings.TrimPrefix(data, cbTZ)
	if val == cbCustom {
		r.sendText(chatID, "Enter timezone (e.g., Europe/Paris):")
		r.setPending(chatID, pendingTZ)
		return
	}
	r.applyTZ(ctx, chatID, val)
}

func (r *Router) applyTZ(ctx context.Context, chatID int64, tz string) {
	eff, ok := r.updatePreferences(ctx, chatID, domain.PreferenceUpdate{Timezone: &tz})
	if !ok {
		return
	}
	r.sendText(chatID, "Timezone updated: "+eff.Timezone)
}

// --- Free-form dispatcher (for all "Custom" inputs) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	switch r.getPending(chatID) {
	case pendingInterval:
		minutes, err := domain.ParseInterval(text)
		if err != nil {
			r.sendText(chatID, "Invalid interval. Use 15 min to 12 h, e.g. 30m, 1h, 1h30m.")
			return
		}
		r.clearPending(chatID)
		r.applyInterval(ctx, chatID, minutes)

	case pendingWindow:
		r.clearPending(chatID)
		r.applyWindow(ctx, chatID, text)

	case pendingTZ:
		r.clearPending(chatID)
		r.applyTZ(ctx, chatID, text)

	default:
		r.sendText(chatID, "I did not get that. Try /drink, /hub or /help.")
	}
}

// --- Pause / Resume ---

func (r *Router) handlePause(ctx context.Context, chatID int64) {
	if err := r.svc.PauseRemindersToday(ctx, chatID); err != nil {
		r.log.Error("pause failed", zap.Int64("user_id", chatID), zap.Error(err))
		r.sendText(chatID, "Failed to pause.")
		return
	}
	r.sendWithMarkup(chatID, "Paused for today ⏸ Reminders come back tomorrow.", mainMenuKeyboard(true))
}

func (r *Router) handleResume(ctx context.Context, chatID int64) {
	if err := r.svc.ResumeRemindersToday(ctx, chatID); err != nil {
		r.log.Error("resume failed", zap.Int64("user_id", chatID), zap.Error(err))
		r.sendText(chatID, "Failed to resume.")
		return
	}
	r.sendWithMarkup(chatID, "Resumed ✅", mainMenuKeyboard(false))
}
