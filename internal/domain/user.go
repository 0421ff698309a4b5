package domain

import "time"

// User represents a Telegram user and their optional reminder preferences.
// A nil preference means "use the system default".
type User struct {
	TelegramID              int64
	Role                    string
	Timezone                *string
	DailyTargetML           *int
	DailyTargetGlasses      *int
	ReminderStartHour       *int
	ReminderEndHour         *int
	ReminderIntervalMinutes *int
	CreatedAt               time.Time // UTC
}

// Defaults are the system-wide fallbacks for every optional preference.
type Defaults struct {
	Timezone        string
	StartHour       int
	EndHour         int
	IntervalMinutes int
	DailyTargetML   int
	DailyGlasses    int
	GlassVolumeML   int
}

// Settings is the effective configuration of a user: overrides merged with defaults.
type Settings struct {
	Timezone        string
	Location        *time.Location
	StartHour       int
	EndHour         int
	IntervalMinutes int
	GoalML          int
	GoalGlasses     int
	GlassVolumeML   int
}

// PreferenceUpdate carries the fields a user may change; nil leaves a field untouched.
type PreferenceUpdate struct {
	TargetGlasses   *int
	StartHour       *int
	EndHour         *int
	IntervalMinutes *int
	Timezone        *string
}

// Empty reports whether the update changes nothing.
func (p PreferenceUpdate) Empty() bool {
	return p.TargetGlasses == nil && p.StartHour == nil && p.EndHour == nil &&
		p.IntervalMinutes == nil && p.Timezone == nil
}

// TouchesSchedule reports whether the update affects when reminders fire.
func (p PreferenceUpdate) TouchesSchedule() bool {
	return p.StartHour != nil || p.EndHour != nil || p.IntervalMinutes != nil || p.Timezone != nil
}

// Apply writes the update into u. Setting a glass target also stamps the ml target.
func (p PreferenceUpdate) Apply(u *User, glassVolumeML int) {
	if p.TargetGlasses != nil {
		g := *p.TargetGlasses
		ml := g * glassVolumeML
		u.DailyTargetGlasses = &g
		u.DailyTargetML = &ml
	}
	if p.StartHour != nil {
		v := *p.StartHour
		u.ReminderStartHour = &v
	}
	if p.EndHour != nil {
		v := *p.EndHour
		u.ReminderEndHour = &v
	}
	if p.IntervalMinutes != nil {
		v := *p.IntervalMinutes
		u.ReminderIntervalMinutes = &v
	}
	if p.Timezone != nil {
		v := *p.Timezone
		u.Timezone = &v
	}
}

// Effective merges the user's overrides with d.
// An unknown timezone falls back to the default one, then to UTC.
func (u *User) Effective(d Defaults) Settings {
	s := Settings{
		Timezone:        d.Timezone,
		StartHour:       d.StartHour,
		EndHour:         d.EndHour,
		IntervalMinutes: d.IntervalMinutes,
		GlassVolumeML:   d.GlassVolumeML,
	}
	if u.Timezone != nil && *u.Timezone != "" {
		s.Timezone = *u.Timezone
	}
	if u.ReminderStartHour != nil {
		s.StartHour = *u.ReminderStartHour
	}
	if u.ReminderEndHour != nil {
		s.EndHour = *u.ReminderEndHour
	}
	if u.ReminderIntervalMinutes != nil {
		s.IntervalMinutes = *u.ReminderIntervalMinutes
	}

	switch {
	case u.DailyTargetML != nil:
		s.GoalML = *u.DailyTargetML
	case u.DailyTargetGlasses != nil:
		s.GoalML = *u.DailyTargetGlasses * d.GlassVolumeML
	default:
		s.GoalML = d.DailyTargetML
	}
	switch {
	case u.DailyTargetGlasses != nil:
		s.GoalGlasses = *u.DailyTargetGlasses
	case d.GlassVolumeML > 0:
		s.GoalGlasses = (s.GoalML + d.GlassVolumeML - 1) / d.GlassVolumeML
	default:
		s.GoalGlasses = d.DailyGlasses
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		s.Timezone = d.Timezone
		loc, err = time.LoadLocation(d.Timezone)
		if err != nil {
			s.Timezone = "UTC"
			loc = time.UTC
		}
	}
	s.Location = loc
	return s
}

// Window returns the reminder window described by s.
func (s Settings) Window() Window {
	return Window{
		StartHour: s.StartHour,
		EndHour:   s.EndHour,
		Interval:  time.Duration(s.IntervalMinutes) * time.Minute,
		Location:  s.Location,
	}
}
