package service

import (
	"fmt"
	"time"
)

// Reporting period helpers. Weeks start on Sunday to match the report
// windows the aggregates are defined over.

// DayRange returns the [start, end) bounds of t's calendar day.
func DayRange(t time.Time) (time.Time, time.Time) {
	year, month, day := t.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// WeekRange returns the [start, end) bounds of t's week, Sunday 00:00
// through the following Sunday.
func WeekRange(t time.Time) (time.Time, time.Time) {
	year, month, day := t.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	start := midnight.AddDate(0, 0, -int(t.Weekday()))
	return start, start.AddDate(0, 0, 7)
}

// MonthRange returns the [start, end) bounds of t's calendar month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	year, month, _ := t.Date()
	start := time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// DayKey returns the bucket key for per-day report grouping.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekKey returns the bucket key for per-week report grouping.
func WeekKey(t time.Time) string {
	start, _ := WeekRange(t)
	return start.Format("2006-01-02")
}

// RangeTitle formats a [start, end) window for report headers.
func RangeTitle(start, end time.Time) string {
	last := end.AddDate(0, 0, -1)
	return fmt.Sprintf("%s - %s", start.Format("Jan 02"), last.Format("Jan 02, 2006"))
}
