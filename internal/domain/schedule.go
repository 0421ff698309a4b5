package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidWindow   = errors.New("invalid reminder window")
	ErrInvalidInterval = errors.New("invalid reminder interval")
)

// Window is the daily [StartHour:00, EndHour:00) range in Location during
// which reminders fire every Interval, counted from StartHour:00.
type Window struct {
	StartHour int
	EndHour   int
	Interval  time.Duration
	Location  *time.Location
}

// Validate checks 0 <= start < 24, 0 < end <= 24, start < end and a positive interval.
func (w Window) Validate() error {
	if w.StartHour < 0 || w.StartHour >= 24 || w.EndHour <= 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("%w: %d-%d", ErrInvalidWindow, w.StartHour, w.EndHour)
	}
	if w.Interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, w.Interval)
	}
	if w.Location == nil {
		return fmt.Errorf("%w: no location", ErrInvalidWindow)
	}
	return nil
}

// bounds returns the window start and end on the local calendar day of t.
// EndHour 24 resolves to the next local midnight.
func (w Window) bounds(t time.Time) (start, end time.Time) {
	lt := t.In(w.Location)
	y, m, d := lt.Date()
	start = time.Date(y, m, d, w.StartHour, 0, 0, 0, w.Location)
	end = time.Date(y, m, d, w.EndHour, 0, 0, 0, w.Location)
	return start, end
}

// Contains reports whether t falls inside the window on its own local day.
func (w Window) Contains(t time.Time) bool {
	start, end := w.bounds(t)
	return !t.Before(start) && t.Before(end)
}

// NextAligned returns the first instant at or after now that lies inside the
// window and on the grid start_of_day + k*Interval. A caller registering in
// the middle of the window gets the next grid tick, never an immediate one
// off the grid, and never a tick at or past EndHour.
// The window must be valid.
func NextAligned(w Window, now time.Time) time.Time {
	start, end := w.bounds(now)

	// A DST gap can collapse a short window to nothing on a given day.
	if now.Before(start) && start.Before(end) {
		return start
	}
	if !now.Before(start) && now.Before(end) {
		elapsed := now.Sub(start)
		k := elapsed / w.Interval
		if elapsed%w.Interval != 0 {
			k++
		}
		candidate := start.Add(k * w.Interval)
		if candidate.Before(end) {
			return candidate
		}
	}

	lt := now.In(w.Location)
	y, m, d := lt.Date()
	return time.Date(y, m, d+1, w.StartHour, 0, 0, 0, w.Location)
}

// DayBounds returns [local midnight, next local midnight) for the day of t in loc.
func DayBounds(t time.Time, loc *time.Location) (from, to time.Time) {
	lt := t.In(loc)
	y, m, d := lt.Date()
	from = time.Date(y, m, d, 0, 0, 0, 0, loc)
	to = time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	return from, to
}

// DayKey returns the local calendar date of t in loc as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}
