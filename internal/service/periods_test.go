package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayRange(t *testing.T) {
	t.Parallel()
	// Wednesday afternoon.
	now := time.Date(2026, 8, 12, 15, 30, 45, 0, time.UTC)

	start, end := DayRange(now)
	assert.Equal(t, time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC), end)
}

func TestWeekRangeStartsSunday(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "midweek",
			in:   time.Date(2026, 8, 12, 15, 0, 0, 0, time.UTC), // Wednesday
			want: time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday is its own week start",
			in:   time.Date(2026, 8, 9, 23, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "saturday belongs to the preceding sunday",
			in:   time.Date(2026, 8, 15, 1, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, end := WeekRange(tc.in)
			assert.Equal(t, tc.want, start)
			assert.Equal(t, tc.want.AddDate(0, 0, 7), end)
		})
	}
}

func TestMonthRange(t *testing.T) {
	t.Parallel()
	start, end := MonthRange(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestKeysAndTitles(t *testing.T) {
	t.Parallel()
	wed := time.Date(2026, 8, 12, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-08-12", DayKey(wed))
	assert.Equal(t, "2026-08-09", WeekKey(wed))

	start, end := WeekRange(wed)
	assert.Equal(t, "Aug 09 - Aug 15, 2026", RangeTitle(start, end))
}
