// Package schedule decides which calendar days members can be granted access
// for and parses the day expressions accepted on the command line.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultRecurrence grants access for every calendar day.
const DefaultRecurrence = "daily"

// ErrNoAccessDay is returned when a recurrence has no occurrence after today.
var ErrNoAccessDay = errors.New("recurrence has no upcoming access day")

// ParseRecurrence parses a natural language or raw RRULE recurrence string.
func ParseRecurrence(s string) (*rrule.RRule, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	if isRawRRule(s) {
		raw := strings.ToUpper(s)
		raw = strings.TrimPrefix(raw, "RRULE:")
		r, err := rrule.StrToRRule(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid RRULE %q: %w", raw, err)
		}
		return r, nil
	}

	switch s {
	case "every day", "daily":
		return rrule.NewRRule(rrule.ROption{
			Freq: rrule.DAILY,
		})

	case "every weekday", "weekdays":
		return rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
		})

	case "every weekend", "weekends":
		return rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: []rrule.Weekday{rrule.SA, rrule.SU},
		})
	}

	if strings.HasPrefix(s, "every ") {
		// "every monday", "every friday and saturday", "every mon,thu"
		var days []rrule.Weekday
		for _, name := range strings.FieldsFunc(strings.TrimPrefix(s, "every "), isListSep) {
			if name == "and" {
				continue
			}
			wd, ok := rruleWeekday(name)
			if !ok {
				days = nil
				break
			}
			days = append(days, wd)
		}
		if len(days) > 0 {
			return rrule.NewRRule(rrule.ROption{
				Freq:      rrule.WEEKLY,
				Byweekday: days,
			})
		}
	}

	return nil, fmt.Errorf("unrecognized recurrence %q", s)
}

// NextAccessDay returns midnight of the first day strictly after now's date
// on which the recurrence grants access. An empty recurrence means daily.
func NextAccessDay(recurrence string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(recurrence) == "" {
		recurrence = DefaultRecurrence
	}
	r, err := ParseRecurrence(recurrence)
	if err != nil {
		return time.Time{}, err
	}

	today := truncateToDay(now)
	r.DTStart(today)

	next := r.After(today, false)
	if next.IsZero() {
		return time.Time{}, ErrNoAccessDay
	}
	return truncateToDay(next), nil
}

// FormatDay renders a day as DD/MM/YYYY.
func FormatDay(t time.Time) string {
	return t.Format("02/01/2006")
}

func isRawRRule(s string) bool {
	return strings.HasPrefix(s, "rrule:") || strings.HasPrefix(s, "freq=")
}

func isListSep(r rune) bool {
	return r == ' ' || r == ','
}

var rruleWeekdays = map[string]rrule.Weekday{
	"sunday":    rrule.SU,
	"monday":    rrule.MO,
	"tuesday":   rrule.TU,
	"wednesday": rrule.WE,
	"thursday":  rrule.TH,
	"friday":    rrule.FR,
	"saturday":  rrule.SA,
	"sun":       rrule.SU,
	"mon":       rrule.MO,
	"tue":       rrule.TU,
	"wed":       rrule.WE,
	"thu":       rrule.TH,
	"fri":       rrule.FR,
	"sat":       rrule.SA,
}

func rruleWeekday(s string) (rrule.Weekday, bool) {
	wd, ok := rruleWeekdays[s]
	return wd, ok
}
