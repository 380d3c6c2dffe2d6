// Package recurrence interprets task repeat rules. A recurring task spawns a
// fresh pending occurrence when the current one is verified; this package
// decides whether a rule repeats and which day the next occurrence lands on.
package recurrence

import (
	"fmt"
	"strings"
)

type Rule string

const (
	Never         Rule = "never"
	EveryDay      Rule = "every_day"
	EveryOtherDay Rule = "every_other_day"
	OnceAWeek     Rule = "once_a_week"
	OnceAMonth    Rule = "once_a_month"
)

var days = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Parse validates a repeat rule string. The empty string means never.
func Parse(s string) (Rule, error) {
	switch Rule(strings.ToLower(strings.TrimSpace(s))) {
	case "", Never:
		return Never, nil
	case EveryDay:
		return EveryDay, nil
	case EveryOtherDay:
		return EveryOtherDay, nil
	case OnceAWeek:
		return OnceAWeek, nil
	case OnceAMonth:
		return OnceAMonth, nil
	}
	return "", fmt.Errorf("unknown repeat rule %q", s)
}

// Repeats reports whether a rule spawns a next occurrence.
func (r Rule) Repeats() bool {
	return r != Never && r != ""
}

// NextAssignedDay returns the weekday label for the next occurrence after one
// assigned to day. Weekly and monthly rules stay on the same day; daily rules
// advance through the week. An unknown day is passed through unchanged so a
// task with a free-form day label keeps it.
func (r Rule) NextAssignedDay(day string) string {
	idx := dayIndex(day)
	if idx < 0 {
		return day
	}
	switch r {
	case EveryDay:
		return days[(idx+1)%len(days)]
	case EveryOtherDay:
		return days[(idx+2)%len(days)]
	default:
		return days[idx]
	}
}

// ValidDay reports whether day is a recognized weekday label.
func ValidDay(day string) bool {
	return dayIndex(day) >= 0
}

func dayIndex(day string) int {
	day = strings.ToLower(strings.TrimSpace(day))
	for i, d := range days {
		if d == day {
			return i
		}
	}
	return -1
}
