package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/oazis/internal/domain"
	"github.com/ykvlv/oazis/internal/hydration"
	"github.com/ykvlv/oazis/internal/reminder"
)

// Callback data prefixes.
const (
	cbOnboard   = "onboard"
	cbDrink     = "drink:"
	cbGoal      = "goal:"
	cbWindow    = "window:"
	cbFreq      = "freq:"
	cbTZ        = "tz:"
	cbHub       = "nav:hub"
	cbHydration = "nav:hydration"
	cbSettings  = "nav:settings"
	cbStats     = "nav:stats"
	cbPause     = "nav:pause"
	cbResume    = "nav:resume"
	cbSetGoal   = "set:goal"
	cbSetWindow = "set:window"
	cbSetFreq   = "set:freq"
	cbSetTZ     = "set:tz"
	cbCustom    = "custom"
)

const (
	minGoalGlasses = 4
	maxGoalGlasses = 10
	statsDays      = 30
)

var (
	windowPresets    = [][2]int{{8, 20}, {9, 21}, {10, 22}, {7, 19}}
	frequencyPresets = []int{60, 90, 120}
	tzPresets        = []string{"Europe/Paris", "Europe/London", "Europe/Moscow", "America/New_York", "Asia/Tokyo", "UTC"}
)

const (
	startText = "👋 Welcome to Oazis.\n\n" +
		"I help you keep track of your hydration, gently and without pressure.\n" +
		"Set up your programme first, or jump straight to the hub."
	helpText = "Commands:\n" +
		"/drink — log a glass\n" +
		"/hub — today at a glance\n" +
		"/stats — last 30 days\n" +
		"/settings — goal, reminder window, frequency, timezone\n" +
		"/pause — no reminders for the rest of today\n" +
		"/resume — turn today's reminders back on"
	onboardGoalText = "🚀 Let's set you up.\n💧 Pick a daily goal between 4 and 10 glasses. You can change it later in the settings."
	goalText        = "🎯 Daily goal\nPick a target between 4 and 10 glasses."
	windowText      = "🕒 Reminder window\nPick the hours you want to be reminded in, or enter your own (e.g. 9-21)."
	freqText        = "⏱️ Reminder frequency\nPick a pace, or enter your own (e.g. 45m, 2h)."
	tzText          = "🌍 Timezone\nPick one or enter your own (Region/City)."
	settingsText    = "⚙️ Settings\nAdjust your programme in one tap."
)

// timeOfDayTip returns a short hydration tip for the local hour.
func timeOfDayTip(hour int) string {
	switch {
	case hour < 11:
		return "Morning tip: a glass right after waking up restarts your energy."
	case hour < 15:
		return "Midday tip: a glass before lunch helps you stay sharp."
	case hour < 19:
		return "Afternoon tip: keep a glass on your desk."
	default:
		return "Evening tip: a small glass, but not right before bed."
	}
}

func noticeText(n reminder.Notice) string {
	if n.Kind == reminder.KindGoalReached {
		return fmt.Sprintf("🎉 Daily goal reached: %s.\nWell done, you can relax for the rest of the day.",
			domain.FormatProgress(n.ConsumedML, n.GoalML))
	}
	return fmt.Sprintf("💧 Hydration reminder: time for a glass of water.\n%s\nSo far today: %s.\n👉 Tap the button below to log it.",
		timeOfDayTip(n.LocalTime.Hour()), domain.FormatProgress(n.ConsumedML, n.GoalML))
}

func loggedText(e *domain.DailyEntry) string {
	text := fmt.Sprintf("👌 Logged. Today: %s.", domain.FormatProgress(e.ConsumedML, e.GoalML))
	if e.GoalReached() {
		text += "\n🎉 Goal reached for today!"
	}
	return text
}

func hubText(p hydration.Progress) string {
	var b strings.Builder
	b.WriteString("🏝️ Oazis\n\nYour hydration space, gently.\n\n")
	fmt.Fprintf(&b, "• Goal: %s\n", domain.FormatVolume(p.GoalML))
	fmt.Fprintf(&b, "• Logged: %s\n", domain.FormatVolume(p.ConsumedML))
	b.WriteString("• Reminders: tune them in ⚙️ Settings")
	if p.GoalReached() {
		b.WriteString("\n\n🎉 Today's goal is reached. You can relax for today.")
	}
	return b.String()
}

func hydrationText(eff domain.Settings, p hydration.Progress, paused, celebrated bool, next time.Time, scheduled bool) string {
	var b strings.Builder
	b.WriteString("💧 Today's hydration\n\n")
	fmt.Fprintf(&b, "• Goal: %d glasses (~%s)\n", eff.GoalGlasses, domain.FormatVolume(p.GoalML))
	fmt.Fprintf(&b, "• Logged: %s\n", domain.FormatProgress(p.ConsumedML, p.GoalML))
	if celebrated {
		b.WriteString("• 🎉 Goal reached today, routine reminders are done\n")
	}
	fmt.Fprintf(&b, "• Reminders: every %s between %dh and %dh (%s)\n",
		domain.FormatInterval(eff.IntervalMinutes), eff.StartHour, eff.EndHour, eff.Timezone)
	switch {
	case paused:
		b.WriteString("• Next reminder: paused for today\n")
	case scheduled:
		fmt.Fprintf(&b, "• Next reminder: %s\n", nextRunLabel(next, eff.Location))
	}
	b.WriteString("\n👉 Use the buttons below to log a glass.")
	return b.String()
}

// nextRunLabel prefixes the local time with the weekday when it is not today.
func nextRunLabel(next time.Time, loc *time.Location) string {
	label := domain.LocalizeTime(next, loc)
	if domain.DayKey(next, loc) != domain.DayKey(time.Now(), loc) {
		label = next.In(loc).Format("Mon") + " " + label
	}
	return label
}

func statsText(st domain.Stats) string {
	var b strings.Builder
	b.WriteString("📊 Statistics\n\n")
	fmt.Fprintf(&b, "• Today: %s\n", domain.FormatProgress(st.TodayConsumedML, st.TodayGoalML))
	fmt.Fprintf(&b, "• Average over %d days: %s/day\n", st.DaysConsidered, domain.FormatVolume(st.AverageML))
	fmt.Fprintf(&b, "• Days with the goal reached: %d\n\n", st.GoalHits)
	switch {
	case st.GoalHits >= 5:
		b.WriteString("🌟 Great rhythm, keep it up.")
	case st.GoalHits >= 2:
		b.WriteString("🧩 Habits are built step by step.")
	default:
		b.WriteString("✨ Start gently, one glass at a time.")
	}
	return b.String()
}

func summaryText(eff domain.Settings) string {
	return fmt.Sprintf("✅ Settings saved\n• Goal: %d glasses/day\n• Reminders: every %s between %dh and %dh\n"+
		"Tip: 1-2 glasses in the morning, 2-3 with meals, 1-2 in the evening.",
		eff.GoalGlasses, domain.FormatInterval(eff.IntervalMinutes), eff.StartHour, eff.EndHour)
}

// mainMenuKeyboard builds the reply keyboard; the toggle shows /resume while
// reminders are paused and /pause otherwise.
func mainMenuKeyboard(paused bool) tgbotapi.ReplyKeyboardMarkup {
	toggle := "/pause"
	if paused {
		toggle = "/resume"
	}
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/drink"),
			tgbotapi.NewKeyboardButton("/hub"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/stats"),
			tgbotapi.NewKeyboardButton(toggle),
		),
	)
}

// drinkKeyboard is a single large button logging one glass.
func drinkKeyboard(volumeML int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🥤 I drank "+domain.FormatVolume(volumeML), cbDrink+strconv.Itoa(volumeML)),
		),
	)
}

func startKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 Set up my programme", cbOnboard),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏝️ Open the hub", cbHub),
		),
	)
}

func hubKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💧 Hydration", cbHydration),
			tgbotapi.NewInlineKeyboardButtonData("📊 Stats", cbStats),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", cbSettings),
		),
	)
}

func hydrationKeyboard(volumeML int, paused bool) tgbotapi.InlineKeyboardMarkup {
	toggle := tgbotapi.NewInlineKeyboardButtonData("⏸ Pause today", cbPause)
	if paused {
		toggle = tgbotapi.NewInlineKeyboardButtonData("▶️ Resume today", cbResume)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🥤 "+domain.FormatVolume(volumeML), cbDrink+strconv.Itoa(volumeML)),
			tgbotapi.NewInlineKeyboardButtonData("🥤 "+domain.FormatVolume(2*volumeML), cbDrink+strconv.Itoa(2*volumeML)),
		),
		tgbotapi.NewInlineKeyboardRow(toggle),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Hub", cbHub),
		),
	)
}

func settingsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Goal", cbSetGoal),
			tgbotapi.NewInlineKeyboardButtonData("🕒 Window", cbSetWindow),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏱️ Frequency", cbSetFreq),
			tgbotapi.NewInlineKeyboardButtonData("🌍 Timezone", cbSetTZ),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Hub", cbHub),
		),
	)
}

func goalKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for g := minGoalGlasses; g <= maxGoalGlasses; g++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(g), cbGoal+strconv.Itoa(g)))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func windowKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, w := range windowPresets {
		label := fmt.Sprintf("%02d:00–%02d:00", w[0], w[1])
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d-%d", cbWindow, w[0], w[1])))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row[:2],
		row[2:],
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", cbWindow+cbCustom),
		),
	)
}

func freqKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range frequencyPresets {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(domain.FormatInterval(m), cbFreq+strconv.Itoa(m)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", cbFreq+cbCustom),
		),
	)
}

func tzKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(tzPresets); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardButtonData(tzPresets[i], cbTZ+tzPresets[i])}
		if i+1 < len(tzPresets) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(tzPresets[i+1], cbTZ+tzPresets[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", cbTZ+cbCustom),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
