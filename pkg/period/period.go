// Package period normalizes timestamps into calendar buckets.
//
// Every monthly series is joined on MonthKey and every daily series on DayKey.
// Both keys are computed in UTC so two timestamps for the same instant always
// land in the same bucket, whatever location they were constructed in.
package period

import (
	"time"
)

const (
	MonthKeyLayout   = "2006-01"
	DayKeyLayout     = "2006-01-02"
	MonthLabelLayout = "Jan 2006"
	DayLabelLayout   = "02/01/2006"
)

// Month identifies one calendar month.
type Month struct {
	Key   string
	Start time.Time
	Label string
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	start := StartOfMonth(t)
	return Month{
		Key:   start.Format(MonthKeyLayout),
		Start: start,
		Label: start.Format(MonthLabelLayout),
	}
}

// End returns the first instant after the month.
func (m Month) End() time.Time {
	return m.Start.AddDate(0, 1, 0)
}

// MonthKey returns the YYYY-MM key of t.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

// DayKey returns the YYYY-MM-DD key of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}

// MonthLabel returns the display label ("Jan 2024") of the month containing t.
func MonthLabel(t time.Time) string {
	return t.UTC().Format(MonthLabelLayout)
}

// DayLabel returns the display label ("15/01/2024") of the day containing t.
func DayLabel(t time.Time) string {
	return t.UTC().Format(DayLabelLayout)
}

func StartOfMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NextMonth returns the start of the month after the one containing t.
func NextMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0)
}

// ParseMonthKey parses a YYYY-MM key into the first instant of that month.
func ParseMonthKey(key string) (time.Time, error) {
	return time.ParseInLocation(MonthKeyLayout, key, time.UTC)
}

// ParseDayKey parses a YYYY-MM-DD key into the first instant of that day.
func ParseDayKey(key string) (time.Time, error) {
	return time.ParseInLocation(DayKeyLayout, key, time.UTC)
}

// AddMonths moves t by n calendar months keeping the time of day. The day of
// month is clamped to the length of the target month, so Jan 31 + 1 is Feb 28
// (or 29) rather than rolling into March.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// MonthsBetween lists every month from the month of from through the month of
// to, inclusive. It is empty when from is after to.
func MonthsBetween(from, to time.Time) []Month {
	start := StartOfMonth(from)
	end := StartOfMonth(to)
	if start.After(end) {
		return nil
	}

	var months []Month
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		months = append(months, MonthOf(cur))
	}
	return months
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
