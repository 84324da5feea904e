// Package week holds the calendar arithmetic for Monday-based menu weeks.
package week

import (
	"fmt"
	"time"
)

const (
	// URLLayout is the dd-mm-yyyy form used in routes.
	URLLayout = "02-01-2006"
	// ISOLayout is the YYYY-MM-DD form stored in the database.
	ISOLayout = "2006-01-02"
)

// Period classifies a week relative to the current one.
type Period string

const (
	PeriodPast     Period = "past"
	PeriodThisWeek Period = "thisWeek"
	PeriodUpcoming Period = "upcoming"
)

// Start returns Monday 00:00 UTC of the week containing t.
func Start(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// End returns the Sunday of the week containing t.
func End(t time.Time) time.Time {
	return Start(t).AddDate(0, 0, 6)
}

// ParseURL parses a dd-mm-yyyy route parameter and snaps it to its Monday.
func ParseURL(s string) (time.Time, error) {
	t, err := time.Parse(URLLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week %q, expected dd-mm-yyyy", s)
	}
	return Start(t), nil
}

// ParseISO parses a stored YYYY-MM-DD week start date.
func ParseISO(s string) (time.Time, error) {
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse(ISOLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func FormatURL(t time.Time) string {
	return t.UTC().Format(URLLayout)
}

func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// URLToISO converts a route week into its stored week start date.
func URLToISO(s string) (string, error) {
	t, err := ParseURL(s)
	if err != nil {
		return "", err
	}
	return FormatISO(t), nil
}

// ISOToURL converts a stored week start date into its route form.
func ISOToURL(s string) (string, error) {
	t, err := ParseISO(s)
	if err != nil {
		return "", err
	}
	return FormatURL(t), nil
}

// Range formats the Monday..Sunday span, e.g. "05 Jan - 11 Jan 2026".
func Range(t time.Time) string {
	return Start(t).Format("02 Jan") + " - " + End(t).Format("02 Jan 2006")
}

// WeeksBetween returns the number of whole weeks from `from` to `to`,
// truncated toward zero. It is negative when `to` is before `from`.
func WeeksBetween(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	return days / 7
}

// Classify places the week starting at weekStart relative to now.
func Classify(weekStart, now time.Time) Period {
	switch {
	case weekStart.Before(Start(now)):
		return PeriodPast
	case weekStart.After(End(now)):
		return PeriodUpcoming
	default:
		return PeriodThisWeek
	}
}
