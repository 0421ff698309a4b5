package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ykvlv/oazis/internal/hydration"
	"github.com/ykvlv/oazis/internal/metrics"
	"github.com/ykvlv/oazis/internal/reminder"
)

// Pending state keys used in conversational flows.
const (
	pendingInterval = "await_interval_text"
	pendingWindow   = "await_window_text"
	pendingTZ       = "await_tz_text"
)

// BotAPI is the part of *tgbotapi.BotAPI the router uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// NextRunner exposes when a user's reminder fires next.
type NextRunner interface {
	NextRun(userID int64) (time.Time, bool)
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot     BotAPI
	log     *zap.Logger
	svc     *hydration.Service
	sched   NextRunner
	limiter *rate.Limiter
	state   map[int64]string // chatID -> pending state
	mu      sync.RWMutex
}

// NewRouter creates a new Telegram router. Outbound notices are limited to
// sendsPerSecond.
func NewRouter(bot BotAPI, log *zap.Logger, svc *hydration.Service, sendsPerSecond float64) *Router {
	if sendsPerSecond <= 0 {
		sendsPerSecond = 25
	}
	return &Router{
		bot:     bot,
		log:     log,
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(sendsPerSecond), 1),
		state:   make(map[int64]string),
	}
}

// AttachScheduler sets the source of "next reminder" instants. The scheduler
// dispatches through the router, so it is attached after construction.
func (r *Router) AttachScheduler(s NextRunner) {
	r.sched = s
}

// setPending sets a pending state for a chat (non-persistent, in-memory).
func (r *Router) setPending(chatID int64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = s
}

// getPending returns current pending state for a chat.
func (r *Router) getPending(chatID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

// clearPending clears a pending state for a chat.
func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

// RegisterCommands publishes the command menu shown by Telegram clients.
func (r *Router) RegisterCommands() error {
	_, err := r.bot.Request(tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start Oazis"},
		tgbotapi.BotCommand{Command: "drink", Description: "Log a glass"},
		tgbotapi.BotCommand{Command: "hub", Description: "Today at a glance"},
		tgbotapi.BotCommand{Command: "stats", Description: "Last 30 days"},
		tgbotapi.BotCommand{Command: "settings", Description: "Goal, window, frequency, timezone"},
		tgbotapi.BotCommand{Command: "pause", Description: "No reminders for the rest of today"},
		tgbotapi.BotCommand{Command: "resume", Description: "Turn today's reminders back on"},
	))
	return err
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	// Text messages
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.clearPending(chatID)
			r.handleStart(ctx, chatID)
		case strings.HasPrefix(text, "/drink"):
			r.handleDrink(ctx, chatID, 0)
		case strings.HasPrefix(text, "/hub"):
			r.handleHub(ctx, chatID)
		case strings.HasPrefix(text, "/stats"):
			r.handleStats(ctx, chatID)
		case strings.HasPrefix(text, "/settings"):
			r.handleSettings(ctx, chatID)
		case strings.HasPrefix(text, "/pause"):
			r.handlePause(ctx, chatID)
		case strings.HasPrefix(text, "/resume"):
			r.handleResume(ctx, chatID)
		case strings.HasPrefix(text, "/help"):
			r.sendText(chatID, helpText)
		default:
			// Free-form text used in "Custom" flows (interval/window/tz)
			r.handleFreeForm(ctx, chatID, text)
		}
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Message == nil {
			_ = r.answerCallback(cb.ID, "")
			return
		}
		data := cb.Data
		chatID := cb.Message.Chat.ID

		switch {
		case data == cbOnboard:
			r.answerAndSend(chatID, cb.ID, onboardGoalText, goalKeyboard())
		case data == cbHub:
			_ = r.answerCallback(cb.ID, "")
			r.handleHub(ctx, chatID)
		case data == cbHydration:
			_ = r.answerCallback(cb.ID, "")
			r.handleHydration(ctx, chatID)
		case data == cbStats:
			_ = r.answerCallback(cb.ID, "")
			r.handleStats(ctx, chatID)
		case data == cbSettings:
			r.answerAndSend(chatID, cb.ID, settingsText, settingsKeyboard())
		case data == cbPause:
			_ = r.answerCallback(cb.ID, "")
			r.handlePause(ctx, chatID)
		case data == cbResume:
			_ = r.answerCallback(cb.ID, "")
			r.handleResume(ctx, chatID)

		// Settings sections
		case data == cbSetGoal:
			r.answerAndSend(chatID, cb.ID, goalText, goalKeyboard())
		case data == cbSetWindow:
			r.answerAndSend(chatID, cb.ID, windowText, windowKeyboard())
		case data == cbSetFreq:
			r.answerAndSend(chatID, cb.ID, freqText, freqKeyboard())
		case data == cbSetTZ:
			r.answerAndSend(chatID, cb.ID, tzText, tzKeyboard())

		case strings.HasPrefix(data, cbDrink):
			r.handleDrinkCallback(ctx, chatID, data, cb.ID)
		case strings.HasPrefix(data, cbGoal):
			r.handleGoalCallback(ctx, chatID, data, cb.ID)
		case strings.HasPrefix(data, cbWindow):
			r.handleWindowCallback(ctx, chatID, data, cb.ID)
		case strings.HasPrefix(data, cbFreq):
			r.handleFreqCallback(ctx, chatID, data, cb.ID)
		case strings.HasPrefix(data, cbTZ):
			r.handleTZCallback(ctx, chatID, data, cb.ID)

		default:
			// Unknown callback: stop the client spinner and ignore
			_ = r.answerCallback(cb.ID, "")
		}
		return
	}
}

// Notify renders a reminder notice and sends it to the user's private chat.
// This makes Router satisfy reminder.Sender.
func (r *Router) Notify(ctx context.Context, userID int64, n reminder.Notice) error {
	start := time.Now()
	defer func() { metrics.SendDuration.Observe(time.Since(start).Seconds()) }()

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	msg := tgbotapi.NewMessage(userID, noticeText(n))
	msg.ReplyMarkup = drinkKeyboard(n.GlassVolumeML)
	if _, err := r.bot.Send(msg); err != nil {
		return fmt.Errorf("send notice to %d: %w", userID, err)
	}
	return nil
}
