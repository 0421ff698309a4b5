package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseInterval(t *testing.T) {
	cases := map[string]int{
		"90":    90,
		"45m":   45,
		"2h":    120,
		"1h30m": 90,
		" 1H ":  60,
	}
	for in, want := range cases {
		got, err := ParseInterval(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: want %d, got %d", in, want, got)
		}
	}

	if _, err := ParseInterval(""); !errors.Is(err, ErrEmptyDuration) {
		t.Fatalf("empty: want ErrEmptyDuration, got %v", err)
	}
	if _, err := ParseInterval("5m"); !errors.Is(err, ErrTooSmall) {
		t.Fatalf("5m: want ErrTooSmall, got %v", err)
	}
	if _, err := ParseInterval("13h"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("13h: want ErrTooLarge, got %v", err)
	}
	if _, err := ParseInterval("soon"); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("soon: want ErrInvalidDuration, got %v", err)
	}
}

func TestParseInterval_HugeValuesDoNotWrap(t *testing.T) {
	for _, in := range []string{"307445750", "5124095577h", "99999999999999m", "1h999999999999m", "12h30m"} {
		if got, err := ParseInterval(in); !errors.Is(err, ErrTooLarge) {
			t.Fatalf("%q: want ErrTooLarge, got %d, %v", in, got, err)
		}
	}
	if got, err := ParseInterval("12h"); err != nil || got != MaxIntervalMinutes {
		t.Fatalf("12h: want %d, got %d, %v", MaxIntervalMinutes, got, err)
	}
}

func TestParseWindow(t *testing.T) {
	for _, in := range []string{"9-21", "09:00-21:00", "09:00–21:00", " 9 - 21 "} {
		s, e, err := ParseWindow(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if s != 9 || e != 21 {
			t.Fatalf("%q: want 9-21, got %d-%d", in, s, e)
		}
	}
	for _, in := range []string{"21-9", "9", "9-25", "09:30-21:00", ""} {
		if _, _, err := ParseWindow(in); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("%q: want ErrInvalidWindow, got %v", in, err)
		}
	}
}

func TestValidateTZ(t *testing.T) {
	if tz, err := ValidateTZ("Europe/Paris"); err != nil || tz != "Europe/Paris" {
		t.Fatalf("want Europe/Paris, got %q (%v)", tz, err)
	}
	if _, err := ValidateTZ("Mars/Olympus"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("want ErrInvalidTimezone, got %v", err)
	}
}

func TestFormatVolume(t *testing.T) {
	cases := map[int]string{
		0:    "0 ml",
		-5:   "0 ml",
		250:  "25 cl",
		333:  "333 ml",
		1000: "1 L",
		1500: "1.5 L",
		2000: "2 L",
	}
	for in, want := range cases {
		if got := FormatVolume(in); got != want {
			t.Fatalf("%d: want %q, got %q", in, want, got)
		}
	}
	if got := FormatProgress(750, 2000); got != "75 cl / 2 L" {
		t.Fatalf("progress: got %q", got)
	}
}

func TestFormatInterval(t *testing.T) {
	cases := map[int]string{0: "—", 45: "45 min", 60: "1 h", 90: "1 h 30 min"}
	for in, want := range cases {
		if got := FormatInterval(in); got != want {
			t.Fatalf("%d: want %q, got %q", in, want, got)
		}
	}
}

func TestEffectiveSettings(t *testing.T) {
	d := Defaults{
		Timezone: "Europe/Paris", StartHour: 9, EndHour: 21, IntervalMinutes: 90,
		DailyTargetML: 2000, DailyGlasses: 8, GlassVolumeML: 250,
	}

	s := (&User{TelegramID: 1}).Effective(d)
	if s.GoalML != 2000 || s.GoalGlasses != 8 || s.StartHour != 9 || s.EndHour != 21 || s.IntervalMinutes != 90 {
		t.Fatalf("defaults not applied: %+v", s)
	}
	if s.Location.String() != "Europe/Paris" {
		t.Fatalf("want Europe/Paris, got %s", s.Location)
	}

	glasses, start, tz := 6, 0, "Mars/Olympus"
	u := &User{TelegramID: 1, DailyTargetGlasses: &glasses, ReminderStartHour: &start, Timezone: &tz}
	s = u.Effective(d)
	if s.GoalML != 1500 || s.GoalGlasses != 6 {
		t.Fatalf("glass target not applied: %+v", s)
	}
	// Hour 0 is a real override, not "unset".
	if s.StartHour != 0 {
		t.Fatalf("want start 0, got %d", s.StartHour)
	}
	if s.Timezone != "Europe/Paris" {
		t.Fatalf("unknown tz should fall back, got %s", s.Timezone)
	}
	if s.Window().Interval != 90*time.Minute {
		t.Fatalf("want 90m interval, got %s", s.Window().Interval)
	}
}

func TestPreferenceUpdate_Apply(t *testing.T) {
	glasses, interval := 5, 60
	u := &User{TelegramID: 1}
	PreferenceUpdate{TargetGlasses: &glasses, IntervalMinutes: &interval}.Apply(u, 250)

	if u.DailyTargetGlasses == nil || *u.DailyTargetGlasses != 5 {
		t.Fatalf("glasses not set")
	}
	if u.DailyTargetML == nil || *u.DailyTargetML != 1250 {
		t.Fatalf("ml target not stamped")
	}
	if u.ReminderIntervalMinutes == nil || *u.ReminderIntervalMinutes != 60 {
		t.Fatalf("interval not set")
	}
	if u.ReminderStartHour != nil {
		t.Fatalf("start hour should be untouched")
	}
}
