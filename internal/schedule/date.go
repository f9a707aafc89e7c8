package schedule

import (
	"fmt"
	"strings"
	"time"
)

// ParseDay parses a day expression relative to now and returns midnight of
// that day in now's location.
// Supports: "today", "yesterday", "tomorrow", "last monday", "monday",
// "2024-01-15", "15/01/2024", "Jan 2", "Jan 2 2006", "January 2",
// "January 2 2006", "2 Jan", "2 Jan 2006", "2 January", "2 January 2006".
// A bare weekday name means its most recent occurrence, today included.
func ParseDay(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSpace(strings.TrimPrefix(s, "on "))

	switch s {
	case "", "today":
		return truncateToDay(now), nil
	case "yesterday":
		return truncateToDay(now).AddDate(0, 0, -1), nil
	case "tomorrow":
		return truncateToDay(now).AddDate(0, 0, 1), nil
	}

	if name, ok := strings.CutPrefix(s, "last "); ok {
		if wd, ok := parseWeekday(name); ok {
			return previousWeekday(now, wd), nil
		}
	}
	if wd, ok := parseWeekday(s); ok {
		return mostRecentWeekday(now, wd), nil
	}

	layouts := []string{
		"2006-01-02",
		"02/01/2006",
		"2/1/2006",
		"jan 2",
		"jan 2 2006",
		"january 2",
		"january 2 2006",
		"2 jan",
		"2 jan 2006",
		"2 january",
		"2 january 2006",
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			if !hasYear(layout) {
				t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
			}
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// DayKey returns the YYYY-MM-DD key of t's local day.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(s string) (time.Weekday, bool) {
	wd, ok := weekdays[s]
	return wd, ok
}

// previousWeekday returns the last occurrence of wd strictly before now's date.
func previousWeekday(now time.Time, wd time.Weekday) time.Time {
	today := truncateToDay(now)
	daysBack := int(today.Weekday()) - int(wd)
	if daysBack <= 0 {
		daysBack += 7
	}
	return today.AddDate(0, 0, -daysBack)
}

// mostRecentWeekday returns today if it is wd, otherwise previousWeekday.
func mostRecentWeekday(now time.Time, wd time.Weekday) time.Time {
	if now.Weekday() == wd {
		return truncateToDay(now)
	}
	return previousWeekday(now, wd)
}

func hasYear(layout string) bool {
	return strings.Contains(layout, "2006")
}
