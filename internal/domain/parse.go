package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyDuration   = errors.New("empty duration")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrTooSmall        = errors.New("duration too small")
	ErrTooLarge        = errors.New("duration too large")
	ErrInvalidTimezone = errors.New("invalid timezone")
)

const (
	MinIntervalMinutes = 15
	MaxIntervalMinutes = 12 * 60
)

var (
	hoursRe   = regexp.MustCompile(`(\d+)\s*h`)
	minutesRe = regexp.MustCompile(`(\d+)\s*m`)
	windowRe  = regexp.MustCompile(`^(\d{1,2})(?::00)?\s*[-–]\s*(\d{1,2})(?::00)?$`)
)

// ParseInterval parses human-friendly intervals like "45", "90m", "2h", "1h30m"
// into whole minutes. Plain numbers are minutes.
func ParseInterval(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, ErrEmptyDuration
	}
	var total time.Duration

	if isAllDigits(s) {
		mins, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, s)
		}
		if mins > MaxIntervalMinutes {
			return 0, tooLarge()
		}
		total = time.Duration(mins) * time.Minute
	} else {
		if mh := hoursRe.FindStringSubmatch(s); len(mh) == 2 {
			// Atoi saturates on overflow, which the bound below rejects.
			h, _ := strconv.Atoi(mh[1])
			if h > MaxIntervalMinutes/60 {
				return 0, tooLarge()
			}
			total += time.Duration(h) * time.Hour
		}
		if mm := minutesRe.FindStringSubmatch(s); len(mm) == 2 {
			m, _ := strconv.Atoi(mm[1])
			if m > MaxIntervalMinutes {
				return 0, tooLarge()
			}
			total += time.Duration(m) * time.Minute
		}
		if total == 0 {
			return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, s)
		}
	}

	mins := int(total / time.Minute)
	if mins < MinIntervalMinutes {
		return 0, fmt.Errorf("%w: min %dm", ErrTooSmall, MinIntervalMinutes)
	}
	if mins > MaxIntervalMinutes {
		return 0, tooLarge()
	}
	return mins, nil
}

func tooLarge() error {
	return fmt.Errorf("%w: max %dh", ErrTooLarge, MaxIntervalMinutes/60)
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ParseWindow parses "9-21", "09:00-21:00" or "09:00–21:00" into whole hours.
func ParseWindow(s string) (startHour, endHour int, err error) {
	m := windowRe.FindStringSubmatch(strings.TrimSpace(s))
	if len(m) != 3 {
		return 0, 0, fmt.Errorf("%w: expected HH-HH", ErrInvalidWindow)
	}
	startHour, _ = strconv.Atoi(m[1])
	endHour, _ = strconv.Atoi(m[2])
	w := Window{StartHour: startHour, EndHour: endHour, Interval: time.Minute, Location: time.UTC}
	if err := w.Validate(); err != nil {
		return 0, 0, err
	}
	return startHour, endHour, nil
}

// ValidateTZ checks that the tz is a valid IANA location.
func ValidateTZ(tz string) (string, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	return loc.String(), nil
}

// FormatVolume renders ml as liters (>= 1000), centiliters (multiples of 10) or milliliters.
func FormatVolume(ml int) string {
	if ml <= 0 {
		return "0 ml"
	}
	if ml >= 1000 {
		if ml%1000 == 0 {
			return fmt.Sprintf("%d L", ml/1000)
		}
		return strconv.FormatFloat(float64(ml)/1000, 'f', 1, 64) + " L"
	}
	if ml%10 == 0 {
		return fmt.Sprintf("%d cl", ml/10)
	}
	return fmt.Sprintf("%d ml", ml)
}

// FormatProgress returns "consumed / goal", e.g. "75 cl / 2 L".
func FormatProgress(consumedML, goalML int) string {
	return FormatVolume(consumedML) + " / " + FormatVolume(goalML)
}

// FormatInterval renders minutes as "1 h 30 min", "45 min" or "2 h".
func FormatInterval(minutes int) string {
	if minutes <= 0 {
		return "—"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%d h %d min", h, m)
	case h > 0:
		return fmt.Sprintf("%d h", h)
	default:
		return fmt.Sprintf("%d min", m)
	}
}

// LocalizeTime formats t in loc as HH:MM.
func LocalizeTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04")
}
