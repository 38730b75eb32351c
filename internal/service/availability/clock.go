package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format of calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the canonical form of a time slot.
	ClockLayout = "03:04 PM"
)

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock reads a 12-hour clock string such as "10:00 AM" or "9:30pm".
// 12 AM is hour 0 and 12 PM stays hour 12.
func ParseClock(s string) (Clock, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var pm bool
	switch {
	case strings.HasSuffix(s, "AM"):
	case strings.HasSuffix(s, "PM"):
		pm = true
	default:
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hm := strings.TrimSpace(s[:len(s)-2])

	hStr, mStr, ok := strings.Cut(hm, ":")
	if !ok {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(hStr)
	if err != nil || h < 1 || h > 12 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(mStr)
	if err != nil || len(mStr) != 2 || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	switch {
	case !pm && h == 12:
		h = 0
	case pm && h != 12:
		h += 12
	}
	return Clock{Hour: h, Minute: m}, nil
}

// String formats c back to the 12-hour clock.
func (c Clock) String() string {
	return time.Date(0, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC).Format(ClockLayout)
}

// On places c on the calendar day of date in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
}

// Combine parses slot and places it on date.
func Combine(date time.Time, slot string, loc *time.Location) (time.Time, error) {
	c, err := ParseClock(slot)
	if err != nil {
		return time.Time{}, err
	}
	return c.On(date, loc), nil
}

// ParseDate reads a YYYY-MM-DD calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
