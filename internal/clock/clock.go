// Package clock holds the calendar arithmetic bots use to pick epochs and
// wake-up deadlines. All boundaries are computed in the configured zone.
package clock

import (
	"fmt"
	"strings"
	"time"
)

type Clock struct {
	loc *time.Location
	now func() time.Time
}

func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// Load builds a Clock for the named IANA zone.
func Load(zone string) (*Clock, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", zone, err)
	}
	return New(loc), nil
}

// WithNow returns a copy of c whose Now is driven by fn.
func (c *Clock) WithNow(fn func() time.Time) *Clock {
	return &Clock{loc: c.loc, now: fn}
}

func (c *Clock) Location() *time.Location { return c.loc }

func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

func (c *Clock) Local(t time.Time) time.Time { return t.In(c.loc) }

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Parse reads a platform timestamp. Timestamps without an offset are taken to
// be in the clock's zone.
func (c *Clock) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		var (
			t   time.Time
			err error
		)
		if strings.Contains(layout, "07:00") {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, c.loc)
		}
		if err == nil {
			return t.In(c.loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: unrecognized layout", s)
}

// DayStart returns local midnight of t's day shifted by offset days.
func (c *Clock) DayStart(t time.Time, offset int) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day()+offset, 0, 0, 0, 0, c.loc)
}

// EpochStart returns the start of the week-long epoch containing t, where
// epochs begin at midnight on weekday. offset shifts by whole epochs.
func (c *Clock) EpochStart(weekday time.Weekday, t time.Time, offset int) time.Time {
	day := c.DayStart(t, 0)
	back := (int(day.Weekday()) - int(weekday) + 7) % 7
	return c.DayStart(day, -back+7*offset)
}

// NextMidnight returns the first local midnight strictly after t.
func (c *Clock) NextMidnight(t time.Time) time.Time {
	return c.DayStart(t, 1)
}

// MonthStart returns midnight on the first day of t's month shifted by offset
// months.
func (c *Clock) MonthStart(t time.Time, offset int) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month()+time.Month(offset), 1, 0, 0, 0, 0, c.loc)
}

// Until is the wait from now to deadline, clamped at zero.
func Until(now, deadline time.Time) time.Duration {
	d := deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// ParseWeekday accepts English weekday names ("wednesday", "Wed").
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || (len(n) >= 3 && strings.HasPrefix(full, n)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", name)
}
