package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate_OK(t *testing.T) {
	d, err := ParseDate("2025-01-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Fatalf("got %v, want %v", d, want)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "10.01.2025", "2025-13-01", "2025-01-32", "yesterday"} {
		if _, err := ParseDate(s); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q): expected ErrInvalidDate, got %v", s, err)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("9:05")
	if err != nil {
		t.Fatalf("ParseTimeOfDay: %v", err)
	}
	if got != "09:05" {
		t.Fatalf("got %q, want 09:05", got)
	}

	for _, s := range []string{"25:00", "12:60", "noon", ""} {
		if _, err := ParseTimeOfDay(s); !errors.Is(err, ErrInvalidTimeOfDay) {
			t.Fatalf("ParseTimeOfDay(%q): expected ErrInvalidTimeOfDay, got %v", s, err)
		}
	}
}

func TestParseHoursMinutes(t *testing.T) {
	d, err := ParseHoursMinutes("3:15")
	if err != nil {
		t.Fatalf("ParseHoursMinutes: %v", err)
	}
	if d != 3*time.Hour+15*time.Minute {
		t.Fatalf("got %v, want 3h15m", d)
	}

	for _, s := range []string{"3", "3:5", "3:75", "-1:00", "0:00", "a:bc"} {
		if _, err := ParseHoursMinutes(s); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("ParseHoursMinutes(%q): expected ErrInvalidDuration, got %v", s, err)
		}
	}
}

func TestMinutesBetween_Rounding(t *testing.T) {
	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		stop time.Time
		want int
	}{
		{start.Add(90 * time.Minute), 90},
		{start.Add(90*time.Minute + 29*time.Second), 90},
		{start.Add(90*time.Minute + 30*time.Second), 91}, // round half up
		{start.Add(-time.Hour), 0},                       // negative clamps to zero
	}
	for _, c := range cases {
		if got := MinutesBetween(start, c.stop); got != c.want {
			t.Fatalf("MinutesBetween(..., %v) = %d, want %d", c.stop, got, c.want)
		}
	}
}

func TestDayRange(t *testing.T) {
	from, _ := ParseDate("2025-01-10")
	to, _ := ParseDate("2025-01-12")

	tr := DayRange(from, to)
	if !tr.Contains(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("range must include start of first day")
	}
	if !tr.Contains(time.Date(2025, 1, 12, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("range must include end of last day")
	}
	if tr.Contains(time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("range must not include the next day")
	}

	// Swapped bounds normalize.
	swapped := DayRange(to, from)
	if !swapped.Start.Equal(tr.Start) || !swapped.End.Equal(tr.End) {
		t.Fatalf("swapped bounds must normalize: %+v vs %+v", swapped, tr)
	}
}
