package clock

import (
	"testing"
	"time"
)

func mustClock(t *testing.T) *Clock {
	t.Helper()
	c, err := Load("America/Denver")
	if err != nil {
		t.Fatalf("load clock: %v", err)
	}
	return c
}

func TestEpochStart(t *testing.T) {
	c := mustClock(t)
	loc := c.Location()

	// Friday 2026-10-16 15:30 local.
	now := time.Date(2026, time.October, 16, 15, 30, 0, 0, loc)

	testCases := []struct {
		name    string
		weekday time.Weekday
		offset  int
		want    time.Time
	}{
		{name: "current wednesday epoch", weekday: time.Wednesday, offset: 0, want: time.Date(2026, time.October, 14, 0, 0, 0, 0, loc)},
		{name: "previous epoch", weekday: time.Wednesday, offset: -1, want: time.Date(2026, time.October, 7, 0, 0, 0, 0, loc)},
		{name: "next epoch", weekday: time.Wednesday, offset: 1, want: time.Date(2026, time.October, 21, 0, 0, 0, 0, loc)},
		{name: "same weekday", weekday: time.Friday, offset: 0, want: time.Date(2026, time.October, 16, 0, 0, 0, 0, loc)},
		{name: "saturday epoch", weekday: time.Saturday, offset: 0, want: time.Date(2026, time.October, 10, 0, 0, 0, 0, loc)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.EpochStart(tc.weekday, now, tc.offset)
			if !got.Equal(tc.want) {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestDayStartAcrossDST(t *testing.T) {
	c := mustClock(t)
	loc := c.Location()

	// DST ends 2026-11-01 in America/Denver; the day is 25 hours long.
	now := time.Date(2026, time.November, 1, 12, 0, 0, 0, loc)
	next := c.NextMidnight(now)
	want := time.Date(2026, time.November, 2, 0, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Fatalf("got %s want %s", next, want)
	}
	if next.Hour() != 0 {
		t.Fatalf("expected midnight, got hour %d", next.Hour())
	}
}

func TestMonthStartRollsYear(t *testing.T) {
	c := mustClock(t)
	loc := c.Location()

	now := time.Date(2026, time.December, 20, 8, 0, 0, 0, loc)
	got := c.MonthStart(now, 1)
	want := time.Date(2027, time.January, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestUntilNeverNegative(t *testing.T) {
	now := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)
	if d := Until(now, now.Add(-time.Hour)); d != 0 {
		t.Fatalf("expected zero wait, got %s", d)
	}
	if d := Until(now, now.Add(time.Minute)); d != time.Minute {
		t.Fatalf("expected one minute, got %s", d)
	}
}

func TestParseFormats(t *testing.T) {
	c := mustClock(t)

	for _, raw := range []string{
		"2026-10-16T12:00:00Z",
		"2026-10-16 06:00:00-06:00",
		"2026-10-16 06:00:00.123456-06:00",
	} {
		got, err := c.Parse(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got.Location() != c.Location() {
			t.Fatalf("parse %q: expected local zone", raw)
		}
	}

	if _, err := c.Parse("not a time"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseWeekday(t *testing.T) {
	for raw, want := range map[string]time.Weekday{"wednesday": time.Wednesday, "Sun": time.Sunday, "FRIDAY": time.Friday} {
		got, err := ParseWeekday(raw)
		if err != nil || got != want {
			t.Fatalf("ParseWeekday(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Fatal("expected error")
	}
}
