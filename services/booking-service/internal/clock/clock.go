// Package clock converts between "HH:MM" wall-clock strings, minutes since midnight and calendar
// dates in the business timezone.
package clock

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidFormat = errors.New("time must be HH:MM")
	ErrOutOfRange    = errors.New("minutes out of range")
	ErrInvalidDate   = errors.New("date must be a valid YYYY-MM-DD")
)

const (
	DateLayout     = "2006-01-02"
	MinutesPerDay  = 24 * 60
	displayDate    = "Monday, January 2, 2006"
	displayClock12 = "3:04 PM"
)

// ToMinutes parses a strict two-digit "HH:MM".
func ToMinutes(hhmm string) (int, error) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, hhmm)
	}
	h, okH := twoDigits(hhmm[0], hhmm[1])
	m, okM := twoDigits(hhmm[3], hhmm[4])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, hhmm)
	}
	return h*60 + m, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

func ToClockTime(minutes int) (string, error) {
	if minutes < 0 || minutes >= MinutesPerDay {
		return "", fmt.Errorf("%w: %d", ErrOutOfRange, minutes)
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60), nil
}

// ParseDate parses a strict "YYYY-MM-DD" as midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if len(date) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// WeekdayOf returns 0 (Sunday) .. 6 (Saturday).
func WeekdayOf(date string) (int, error) {
	t, err := ParseDate(date, time.UTC)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}

// Instant is the moment date+clockTime occurs in loc.
func Instant(date, clockTime string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	mins, err := ToMinutes(clockTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), mins/60, mins%60, 0, 0, day.Location()), nil
}

// IsInPast reports whether date+clockTime in loc is strictly before now.
func IsInPast(date, clockTime string, now time.Time, loc *time.Location) (bool, error) {
	at, err := Instant(date, clockTime, loc)
	if err != nil {
		return false, err
	}
	return at.Before(now), nil
}

// FormatDate renders "Monday, January 2, 2006" for emails.
func FormatDate(date string) string {
	t, err := ParseDate(date, time.UTC)
	if err != nil {
		return date
	}
	return t.Format(displayDate)
}

// Format12h renders "14:00" as "2:00 PM".
func Format12h(clockTime string) string {
	mins, err := ToMinutes(clockTime)
	if err != nil {
		return clockTime
	}
	return time.Date(2000, 1, 1, mins/60, mins%60, 0, 0, time.UTC).Format(displayClock12)
}
