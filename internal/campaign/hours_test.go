package campaign

import (
	"testing"
	"time"

	"github.com/acme/coldcall-agent/internal/domain"
)

func mustWindow(t *testing.T, start, end string) window {
	t.Helper()
	w, err := parseWindow(domain.CallHours{Start: start, End: end})
	if err != nil {
		t.Fatalf("parse window: %v", err)
	}
	return w
}

func TestWindowContains(t *testing.T) {
	w := mustWindow(t, "09:00", "17:00")
	cases := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 1, 1, 16, 59, 0, 0, time.UTC), true},
		{time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 1, 1, 17, 0, 59, 0, time.UTC), true},
		{time.Date(2024, 1, 1, 17, 1, 0, 0, time.UTC), false},
		{time.Date(2024, 1, 1, 8, 59, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := w.contains(tc.at); got != tc.want {
			t.Fatalf("%v: expected %v", tc.at, tc.want)
		}
	}
}

func TestWindowSpanningMidnight(t *testing.T) {
	w := mustWindow(t, "22:00", "02:00")
	if !w.contains(time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected late evening inside window")
	}
	if !w.contains(time.Date(2024, 1, 2, 1, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected early morning inside window")
	}
	if !w.contains(time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected the closing minute inside window")
	}
	if w.contains(time.Date(2024, 1, 2, 2, 1, 0, 0, time.UTC)) {
		t.Fatalf("expected the minute after closing outside window")
	}
	if w.contains(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected midday outside window")
	}
	next := w.nextOpen(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC))
	if !next.Equal(time.Date(2024, 1, 2, 22, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected next open %v", next)
	}
}

func TestNextOpen(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	w := mustWindow(t, "09:00", "17:00")

	evening := time.Date(2024, 3, 4, 18, 0, 0, 0, ny)
	if got := w.nextOpen(evening); !got.Equal(time.Date(2024, 3, 5, 9, 0, 0, 0, ny)) {
		t.Fatalf("expected next morning, got %v", got)
	}
	early := time.Date(2024, 3, 4, 7, 0, 0, 0, ny)
	if got := w.nextOpen(early); !got.Equal(time.Date(2024, 3, 4, 9, 0, 0, 0, ny)) {
		t.Fatalf("expected same morning, got %v", got)
	}
	midday := time.Date(2024, 3, 4, 12, 0, 0, 0, ny)
	if got := w.nextDayOpen(midday); !got.Equal(time.Date(2024, 3, 5, 9, 0, 0, 0, ny)) {
		t.Fatalf("expected tomorrow's open, got %v", got)
	}
}

func TestParseClockRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "9", "25:00", "09:60", "nine"} {
		if _, err := parseClock(s); err == nil {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}
