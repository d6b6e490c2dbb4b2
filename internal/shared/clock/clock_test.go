package clock_test

import (
	"testing"
	"time"

	"hrflow/internal/shared/clock"

	"github.com/stretchr/testify/assert"
)

func date(v string) time.Time {
	t, err := clock.ParseDate(v)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWeekdayCount(t *testing.T) {
	t.Run("full working week", func(t *testing.T) {
		// 2025-06-09 is a Monday.
		got := clock.WeekdayCount(date("2025-06-09"), date("2025-06-13"), nil)
		assert.Equal(t, 5, got)
	})

	t.Run("span including weekend", func(t *testing.T) {
		got := clock.WeekdayCount(date("2025-06-06"), date("2025-06-09"), nil)
		assert.Equal(t, 2, got) // Friday and Monday
	})

	t.Run("single weekday", func(t *testing.T) {
		got := clock.WeekdayCount(date("2025-06-11"), date("2025-06-11"), nil)
		assert.Equal(t, 1, got)
	})

	t.Run("weekend only", func(t *testing.T) {
		got := clock.WeekdayCount(date("2025-06-07"), date("2025-06-08"), nil)
		assert.Equal(t, 0, got)
	})

	t.Run("end before start", func(t *testing.T) {
		got := clock.WeekdayCount(date("2025-06-13"), date("2025-06-09"), nil)
		assert.Equal(t, 0, got)
	})

	t.Run("custom weekend set", func(t *testing.T) {
		weekend := map[time.Weekday]bool{time.Friday: true, time.Saturday: true}
		got := clock.WeekdayCount(date("2025-06-06"), date("2025-06-08"), weekend)
		assert.Equal(t, 1, got) // only Sunday counts
	})
}

func TestCalendarDaysUntil(t *testing.T) {
	assert.Equal(t, 5, clock.CalendarDaysUntil(date("2025-06-01"), date("2025-06-06")))
	assert.Equal(t, 0, clock.CalendarDaysUntil(date("2025-06-01"), date("2025-06-01")))
	assert.Equal(t, -3, clock.CalendarDaysUntil(date("2025-06-04"), date("2025-06-01")))
}

func TestQuarterBounds(t *testing.T) {
	start, end := clock.QuarterBounds(date("2025-08-15"))
	assert.Equal(t, date("2025-07-01"), start)
	assert.Equal(t, date("2025-10-01"), end)

	start, end = clock.QuarterBounds(date("2025-01-01"))
	assert.Equal(t, date("2025-01-01"), start)
	assert.Equal(t, date("2025-04-01"), end)

	start, end = clock.QuarterBounds(date("2025-12-31"))
	assert.Equal(t, date("2025-10-01"), start)
	assert.Equal(t, date("2026-01-01"), end)
}

func TestYearBounds(t *testing.T) {
	start, end := clock.YearBounds(date("2025-08-15"))
	assert.Equal(t, date("2025-01-01"), start)
	assert.Equal(t, date("2026-01-01"), end)
}

func TestSystemClockMonotonic(t *testing.T) {
	c := clock.NewSystemClock()
	prev := c.Now()
	for i := 0; i < 100; i++ {
		now := c.Now()
		assert.False(t, now.Before(prev))
		prev = now
	}
}

func TestFixedClock(t *testing.T) {
	at := date("2025-06-01")
	c := clock.NewFixedClock(at)
	assert.Equal(t, at, c.Now())

	c.Advance(48 * time.Hour)
	assert.Equal(t, date("2025-06-03"), c.Now())
}
