package clock

import (
	"sync"
	"time"
)

const DateLayout = "2006-01-02"

// Clock supplies the current instant. Injected everywhere time matters so
// tests can drive it deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the wall clock in UTC. Within a process the returned
// instants never go backwards, even if the wall clock does.
type SystemClock struct {
	mu   sync.Mutex
	last time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if now.Before(c.last) {
		now = c.last
	}
	c.last = now
	return now
}

// FixedClock serves a preset instant and can be advanced by tests.
type FixedClock struct {
	mu sync.Mutex
	at time.Time
}

func NewFixedClock(at time.Time) *FixedClock {
	return &FixedClock{at: at.UTC()}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

func (c *FixedClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = at.UTC()
}

// DefaultWeekend is Saturday and Sunday.
func DefaultWeekend() map[time.Weekday]bool {
	return map[time.Weekday]bool{
		time.Saturday: true,
		time.Sunday:   true,
	}
}

// WeekdayCount returns the number of working days in [start, end]
// inclusive, skipping the given weekend set. Zero when end < start.
func WeekdayCount(start, end time.Time, weekend map[time.Weekday]bool) int {
	if weekend == nil {
		weekend = DefaultWeekend()
	}

	start = Midnight(start)
	end = Midnight(end)

	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !weekend[d.Weekday()] {
			count++
		}
	}
	return count
}

// Midnight truncates an instant to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CalendarDaysUntil returns the whole calendar days from `from` to `to`,
// negative when `to` is earlier. Used by lead-time eligibility rules.
func CalendarDaysUntil(from, to time.Time) int {
	return int(Midnight(to).Sub(Midnight(from)).Hours() / 24)
}

// QuarterBounds returns the half-open interval [start, end) of the quarter
// containing t.
func QuarterBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	qStartMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
	start := time.Date(t.Year(), qStartMonth, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 3, 0)
}

// YearBounds returns the half-open interval [Jan 1, next Jan 1) of the
// year containing t.
func YearBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// ParseDate parses an ISO YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
